package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"worktally/docstore"
	"worktally/notify"
)

func floatPtr(v float64) *float64 { return &v }

func TestGet_ReturnsDefaultsWhenMissing(t *testing.T) {
	t.Parallel()

	got, err := NewStore(docstore.NewMemoryStore(), nil).Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.HourIncrement != DefaultHourIncrement {
		t.Fatalf("expected default increment, got %v", got.HourIncrement)
	}
}

func TestGet_MergesStoredValuesOverDefaults(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: Collection, ID: DocumentID, Data: []byte(`{"hourIncrement":0.25,"theme":"dark"}`)}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	got, err := NewStore(store, nil).Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.HourIncrement != 0.25 {
		t.Fatalf("expected stored increment 0.25, got %v", got.HourIncrement)
	}
}

func TestSave_KeepsUnknownStoredKeys(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: Collection, ID: DocumentID, Data: []byte(`{"hourIncrement":0.25,"theme":"dark"}`)}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	if _, err := NewStore(store, nil).Save(context.Background(), Partial{HourIncrement: floatPtr(1)}); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	doc, err := store.GetDocument(context.Background(), Collection, DocumentID)
	if err != nil {
		t.Fatalf("get settings document: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(doc.Data, &raw); err != nil {
		t.Fatalf("decode settings document: %v", err)
	}
	if raw["theme"] != "dark" || raw["hourIncrement"] != 1.0 {
		t.Fatalf("unexpected stored settings: %s", doc.Data)
	}
}

func TestGet_PartialStoredDocumentFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	if _, err := store.SetDocument(context.Background(), docstore.Document{Collection: Collection, ID: DocumentID, Data: []byte(`{}`)}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	got, err := NewStore(store, nil).Get(context.Background())
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if got.HourIncrement != DefaultHourIncrement {
		t.Fatalf("expected default increment, got %v", got.HourIncrement)
	}
}

func TestSave_MergesAndPersists(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	s := NewStore(store, nil)

	saved, err := s.Save(context.Background(), Partial{HourIncrement: floatPtr(0.25)})
	if err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if saved.HourIncrement != 0.25 {
		t.Fatalf("expected 0.25, got %v", saved.HourIncrement)
	}

	unchanged, err := s.Save(context.Background(), Partial{})
	if err != nil {
		t.Fatalf("save empty partial: %v", err)
	}
	if unchanged.HourIncrement != 0.25 {
		t.Fatalf("empty partial must keep stored value, got %v", unchanged.HourIncrement)
	}

	reloaded, err := NewStore(store, nil).Get(context.Background())
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if reloaded.HourIncrement != 0.25 {
		t.Fatalf("expected persisted 0.25, got %v", reloaded.HourIncrement)
	}
}

func TestSave_RejectsNonPositiveIncrement(t *testing.T) {
	t.Parallel()

	s := NewStore(docstore.NewMemoryStore(), nil)
	for _, value := range []float64{0, -1} {
		if _, err := s.Save(context.Background(), Partial{HourIncrement: floatPtr(value)}); err == nil {
			t.Fatalf("expected validation error for %v", value)
		}
	}
}

func TestSave_PropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	store := docstore.NewMemoryStore()
	store.Fail = func(op string) error {
		if op == "set" {
			return errors.New("forbidden")
		}
		return nil
	}

	_, err := NewStore(store, nil).Save(context.Background(), Partial{HourIncrement: floatPtr(1)})
	if !errors.Is(err, docstore.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type failingPublisher struct {
	events []notify.Event
}

func (p *failingPublisher) Publish(_ context.Context, event notify.Event) error {
	p.events = append(p.events, event)
	return errors.New("broker down")
}

func TestSave_LogsFailedNotificationAndStampsEvent(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	publisher := &failingPublisher{}
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	s := NewStore(docstore.NewMemoryStore(), publisher,
		WithLogger(zap.New(core)),
		WithClock(func() time.Time { return at }),
	)

	got, err := s.Save(context.Background(), Partial{HourIncrement: floatPtr(0.25)})
	if err != nil {
		t.Fatalf("save should succeed when notification fails: %v", err)
	}
	if got.HourIncrement != 0.25 {
		t.Fatalf("expected 0.25, got %v", got.HourIncrement)
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Kind != notify.KindSettingsChanged || event.Key != DocumentID || !event.At.Equal(at) {
		t.Fatalf("unexpected event: %+v", event)
	}

	entries := logs.FilterMessage("change notification failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if entries[0].ContextMap()["kind"] != notify.KindSettingsChanged {
		t.Fatalf("unexpected log fields: %v", entries[0].ContextMap())
	}
}

func TestRoundToIncrement(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hours, increment, want float64
	}{
		{hours: 1.3, increment: 0.5, want: 1.5},
		{hours: 1.2, increment: 0.5, want: 1.0},
		{hours: 0.1, increment: 0.25, want: 0},
		{hours: 2.3, increment: 0.1, want: 2.3},
		{hours: -3, increment: 0.5, want: 0},
		{hours: 1.37, increment: 0, want: 1.37},
	}

	for _, tt := range tests {
		if got := RoundToIncrement(tt.hours, tt.increment); got != tt.want {
			t.Fatalf("round %.2f to %.2f: expected %v, got %v", tt.hours, tt.increment, tt.want, got)
		}
	}
}
