// Package docstore is the key/document storage used by time records and
// settings. Documents are addressed by collection and id and carry an opaque
// concurrency token that changes on every write.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by GetDocument when no document exists.
	ErrNotFound = errors.New("document not found")
	// ErrStaleWrite is returned by SetDocument when the supplied token does
	// not match the stored one.
	ErrStaleWrite = errors.New("stale write: concurrency token mismatch")
	// ErrUnavailable wraps failures reaching the underlying database.
	ErrUnavailable = errors.New("document store unavailable")
)

type Document struct {
	Collection string
	ID         string
	Data       []byte
	// Token is empty for documents that have not been written yet.
	Token string
}

type Store interface {
	GetDocument(ctx context.Context, collection, id string) (Document, error)
	GetDocuments(ctx context.Context, collection string) ([]Document, error)
	// SetDocument upserts doc. An empty token creates the document and fails
	// with ErrStaleWrite if it already exists; otherwise the token must match.
	// The returned document carries the new token.
	SetDocument(ctx context.Context, doc Document) (Document, error)
	DeleteDocument(ctx context.Context, collection, id string) error
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Options struct {
	Driver string
	Path   string
	DSN    string
}

// Open initializes the store selected by opts and returns a ready handle.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Driver)) {
	case "", DriverSQLite:
		store, err := OpenSQLite(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverPostgres:
		store, err := OpenPostgres(ctx, opts.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", opts.Driver)
	}
}

func validateKey(collection, id string) error {
	if strings.TrimSpace(collection) == "" {
		return fmt.Errorf("document collection is required")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document id is required")
	}
	return nil
}
