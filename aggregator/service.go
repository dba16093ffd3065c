// Package aggregator applies hour entries to time records: one record per
// (work item, user), one daily log per date, one audit event per write.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"worktally/docstore"
	"worktally/internal/timeutil"
	"worktally/notify"
	"worktally/timeentry"
)

var (
	ErrInvalidEntry = errors.New("invalid entry")
	ErrInvalidDate  = errors.New("invalid entry date")
)

// Entry is one hours submission for a work item on a calendar date.
type Entry struct {
	WorkItemID int
	UserID     string
	Date       string
	// Hours is stored as given. Callers clamp and round before submitting.
	Hours    float64
	Metadata timeentry.Metadata
	Notes    string
}

type Service struct {
	store     docstore.Store
	publisher notify.Publisher
	logger    *zap.Logger
	now       func() time.Time

	// mu keeps each read/write pair of SetEntry together within this process.
	mu sync.Mutex
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithNotifier(publisher notify.Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(store docstore.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: notify.Nop{},
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetEntry records entry.Hours for entry.Date, replacing any hours already
// logged for that date, and appends one audit event. Unchanged values are
// still audited. Store errors are returned unchanged in their chain
// (docstore.ErrStaleWrite, docstore.ErrUnavailable) and never retried.
func (s *Service) SetEntry(ctx context.Context, entry Entry) (timeentry.Record, error) {
	if entry.WorkItemID <= 0 {
		return timeentry.Record{}, fmt.Errorf("%w: work item id must be > 0", ErrInvalidEntry)
	}
	if strings.TrimSpace(entry.UserID) == "" {
		return timeentry.Record{}, fmt.Errorf("%w: user id is required", ErrInvalidEntry)
	}
	date, err := timeutil.NormalizeDate(entry.Date)
	if err != nil {
		return timeentry.Record{}, fmt.Errorf("%w: %w", ErrInvalidDate, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := timeentry.RecordID(entry.WorkItemID, entry.UserID)
	record, found, err := s.load(ctx, id)
	if err != nil {
		return timeentry.Record{}, err
	}

	now := s.now().UTC()
	action := timeentry.ActionUpdated
	if !found {
		action = timeentry.ActionCreated
		record = timeentry.Record{
			WorkItemID: entry.WorkItemID,
			UserID:     entry.UserID,
			Logs:       []timeentry.DailyLog{},
			AuditLog:   []timeentry.AuditEvent{},
			CreatedAt:  now,
		}
	}

	previous := 0.0
	if i := record.LogIndex(date); i >= 0 {
		previous = record.Logs[i].Hours
		record.Logs[i].Hours = entry.Hours
	} else {
		record.Logs = append(record.Logs, timeentry.DailyLog{Date: date, Hours: entry.Hours})
	}

	record.AuditLog = append(record.AuditLog, timeentry.AuditEvent{
		Timestamp:     now,
		UserID:        entry.UserID,
		UserName:      entry.Metadata.UserName,
		Action:        action,
		PreviousHours: previous,
		NewHours:      entry.Hours,
		Notes:         entry.Notes,
	})
	record.ApplyMetadata(entry.Metadata)
	record.UpdatedAt = now
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	saved, err := s.save(ctx, record)
	if err != nil {
		return timeentry.Record{}, err
	}

	s.logger.Debug("time entry saved",
		zap.String("record", id),
		zap.String("date", date),
		zap.Float64("previous_hours", previous),
		zap.Float64("hours", entry.Hours),
		zap.String("action", string(action)),
	)
	s.publish(ctx, notify.KindEntryChanged, id)

	return saved, nil
}

// GetEntry loads one record. A missing record is reported as found == false.
func (s *Service) GetEntry(ctx context.Context, workItemID int, userID string) (timeentry.Record, bool, error) {
	return s.load(ctx, timeentry.RecordID(workItemID, userID))
}

// DeleteEntry removes a record with its logs and audit trail.
func (s *Service) DeleteEntry(ctx context.Context, workItemID int, userID string) error {
	id := timeentry.RecordID(workItemID, userID)
	if err := s.store.DeleteDocument(ctx, timeentry.Collection, id); err != nil {
		return fmt.Errorf("delete time record %s: %w", id, err)
	}
	s.publish(ctx, notify.KindEntryDeleted, id)
	return nil
}

// EntriesForWorkItem returns every user's record for the work item.
func (s *Service) EntriesForWorkItem(ctx context.Context, workItemID int) ([]timeentry.Record, error) {
	docs, err := s.store.GetDocuments(ctx, timeentry.Collection)
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}

	records := make([]timeentry.Record, 0, 4)
	for _, doc := range docs {
		record, err := timeentry.DecodeDocument(doc.ID, doc.Data)
		if err != nil {
			s.logger.Warn("skipping undecodable time record", zap.String("record", doc.ID), zap.Error(err))
			continue
		}
		if record.WorkItemID != workItemID {
			continue
		}
		record.Token = doc.Token
		records = append(records, record)
	}
	return records, nil
}

// GetTotalHours sums all logs of all users for the work item.
func (s *Service) GetTotalHours(ctx context.Context, workItemID int) (float64, error) {
	records, err := s.EntriesForWorkItem(ctx, workItemID)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, record := range records {
		total += record.TotalHours()
	}
	return total, nil
}

func (s *Service) load(ctx context.Context, id string) (timeentry.Record, bool, error) {
	doc, err := s.store.GetDocument(ctx, timeentry.Collection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return timeentry.Record{}, false, nil
		}
		return timeentry.Record{}, false, fmt.Errorf("load time record %s: %w", id, err)
	}

	record, err := timeentry.DecodeDocument(doc.ID, doc.Data)
	if err != nil {
		return timeentry.Record{}, false, fmt.Errorf("load time record %s: %w", id, err)
	}
	record.Token = doc.Token
	return record, true, nil
}

func (s *Service) save(ctx context.Context, record timeentry.Record) (timeentry.Record, error) {
	data, err := timeentry.Encode(record)
	if err != nil {
		return timeentry.Record{}, err
	}

	doc, err := s.store.SetDocument(ctx, docstore.Document{
		Collection: timeentry.Collection,
		ID:         record.ID(),
		Data:       data,
		Token:      record.Token,
	})
	if err != nil {
		return timeentry.Record{}, fmt.Errorf("save time record %s: %w", record.ID(), err)
	}

	record.Token = doc.Token
	return record, nil
}

func (s *Service) publish(ctx context.Context, kind, key string) {
	event := notify.Event{Kind: kind, Key: key, At: s.now().UTC()}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("change notification failed", zap.String("kind", kind), zap.String("key", key), zap.Error(err))
	}
}
