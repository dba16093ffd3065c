package docstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same token semantics as
// SQLStore. Fail, when set, is consulted before every operation and lets
// callers simulate an unreachable store.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]map[string]Document

	Fail func(op string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]Document)}
}

func (m *MemoryStore) fail(op string) error {
	if m.Fail == nil {
		return nil
	}
	if err := m.Fail(op); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
	}
	return nil
}

func (m *MemoryStore) GetDocument(ctx context.Context, collection, id string) (Document, error) {
	if err := validateKey(collection, id); err != nil {
		return Document{}, err
	}
	if err := m.fail("get"); err != nil {
		return Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return cloneDocument(doc), nil
}

func (m *MemoryStore) GetDocuments(ctx context.Context, collection string) ([]Document, error) {
	if err := m.fail("list"); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	docs := make([]Document, 0, len(m.docs[collection]))
	for _, doc := range m.docs[collection] {
		docs = append(docs, cloneDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

func (m *MemoryStore) SetDocument(ctx context.Context, doc Document) (Document, error) {
	if err := validateKey(doc.Collection, doc.ID); err != nil {
		return Document{}, err
	}
	if err := m.fail("set"); err != nil {
		return Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.docs[doc.Collection][doc.ID]
	switch {
	case doc.Token == "" && exists, doc.Token != "" && !exists, exists && existing.Token != doc.Token:
		return Document{}, fmt.Errorf("write document %s/%s: %w", doc.Collection, doc.ID, ErrStaleWrite)
	}

	if m.docs[doc.Collection] == nil {
		m.docs[doc.Collection] = make(map[string]Document)
	}
	doc.Token = uuid.NewString()
	m.docs[doc.Collection][doc.ID] = cloneDocument(doc)
	return cloneDocument(doc), nil
}

func (m *MemoryStore) DeleteDocument(ctx context.Context, collection, id string) error {
	if err := validateKey(collection, id); err != nil {
		return err
	}
	if err := m.fail("delete"); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[collection][id]; !ok {
		return ErrNotFound
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func cloneDocument(doc Document) Document {
	doc.Data = append([]byte(nil), doc.Data...)
	return doc
}
