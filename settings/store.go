// Package settings keeps the single global configuration document.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"worktally/docstore"
	"worktally/notify"
)

const (
	Collection = "TimeTrackerSettings"
	DocumentID = "global"

	DefaultHourIncrement = 0.5
)

type Settings struct {
	HourIncrement float64 `json:"hourIncrement" validate:"gt=0"`
}

// Partial holds the fields a caller wants to change; nil fields are kept.
type Partial struct {
	HourIncrement *float64 `json:"hourIncrement,omitempty"`
}

func Defaults() Settings {
	return Settings{HourIncrement: DefaultHourIncrement}
}

// Merge applies the set fields of p onto s.
func (s Settings) Merge(p Partial) Settings {
	if p.HourIncrement != nil {
		s.HourIncrement = *p.HourIncrement
	}
	return s
}

type Store struct {
	store     docstore.Store
	publisher notify.Publisher
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(store docstore.Store, publisher notify.Publisher, opts ...Option) *Store {
	if publisher == nil {
		publisher = notify.Nop{}
	}
	s := &Store{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored settings over the defaults.
func (s *Store) Get(ctx context.Context) (Settings, error) {
	current, err := s.load(ctx)
	return current.Settings, err
}

// Save merges p into the current settings and persists the full document.
// Keys this version does not know about are written back unchanged.
func (s *Store) Save(ctx context.Context, p Partial) (Settings, error) {
	current, err := s.load(ctx)
	if err != nil {
		return Settings{}, err
	}

	next := current.Settings.Merge(p)
	if err := s.validate.Struct(next); err != nil {
		return Settings{}, fmt.Errorf("validation failed: %w", err)
	}

	increment, err := json.Marshal(next.HourIncrement)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	current.raw["hourIncrement"] = increment

	data, err := json.Marshal(current.raw)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if _, err := s.store.SetDocument(ctx, docstore.Document{
		Collection: Collection,
		ID:         DocumentID,
		Data:       data,
		Token:      current.token,
	}); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}

	event := notify.Event{Kind: notify.KindSettingsChanged, Key: DocumentID, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("change notification failed", zap.String("kind", event.Kind), zap.String("key", event.Key), zap.Error(err))
	}
	return next, nil
}

type loaded struct {
	Settings
	raw   map[string]json.RawMessage
	token string
}

func (s *Store) load(ctx context.Context) (loaded, error) {
	doc, err := s.store.GetDocument(ctx, Collection, DocumentID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return loaded{Settings: Defaults(), raw: map[string]json.RawMessage{}}, nil
		}
		return loaded{}, fmt.Errorf("load settings: %w", err)
	}

	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(doc.Data, &raw); err != nil {
		return loaded{}, fmt.Errorf("decode settings: %w", err)
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	var stored Partial
	if err := json.Unmarshal(doc.Data, &stored); err != nil {
		return loaded{}, fmt.Errorf("decode settings: %w", err)
	}
	merged := Defaults().Merge(stored)
	if merged.HourIncrement <= 0 {
		merged.HourIncrement = DefaultHourIncrement
	}
	return loaded{Settings: merged, raw: raw, token: doc.Token}, nil
}

// RoundToIncrement rounds hours to the nearest multiple of increment and
// clamps negative values to zero.
func RoundToIncrement(hours, increment float64) float64 {
	if hours <= 0 {
		return 0
	}
	if increment <= 0 {
		return hours
	}
	rounded := math.Round(hours/increment) * increment
	return math.Round(rounded*1e6) / 1e6
}
