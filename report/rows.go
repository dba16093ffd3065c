// Package report reads time records and turns their daily logs into
// filterable rows, summaries and CSV/Excel exports.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"worktally/docstore"
	"worktally/internal/timeutil"
	"worktally/timeentry"
)

// Row is one daily log with the record's denormalized metadata.
type Row struct {
	WorkItemID    int     `json:"workItemId"`
	WorkItemTitle string  `json:"workItemTitle"`
	WorkItemType  string  `json:"workItemType"`
	ProjectID     string  `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	UserID        string  `json:"userId"`
	UserName      string  `json:"userName"`
	Description   string  `json:"description"`
	Date          string  `json:"date"`
	Hours         float64 `json:"hours"`
}

func (r Row) UserDisplayName() string {
	if strings.TrimSpace(r.UserName) != "" {
		return r.UserName
	}
	return r.UserID
}

const UnknownType = "Unknown"

func (r Row) TypeName() string {
	if strings.TrimSpace(r.WorkItemType) != "" {
		return r.WorkItemType
	}
	return UnknownType
}

// Criteria restricts rows. Zero-valued fields impose no constraint.
// WorkItemType compares against the displayed type, so UnknownType selects
// rows without one.
type Criteria struct {
	From         string
	To           string
	UserID       string
	WorkItemType string
	WorkItemID   int
}

// Normalize validates the date bounds.
func (c Criteria) Normalize() (Criteria, error) {
	var err error
	if c.From != "" {
		if c.From, err = timeutil.NormalizeDate(c.From); err != nil {
			return c, fmt.Errorf("from: %w", err)
		}
	}
	if c.To != "" {
		if c.To, err = timeutil.NormalizeDate(c.To); err != nil {
			return c, fmt.Errorf("to: %w", err)
		}
	}
	if c.From != "" && c.To != "" && c.From > c.To {
		return c, fmt.Errorf("invalid range: from %s is after to %s", c.From, c.To)
	}
	return c, nil
}

func (c Criteria) Match(row Row) bool {
	if !timeutil.InDateRange(row.Date, c.From, c.To) {
		return false
	}
	if c.UserID != "" && row.UserID != c.UserID {
		return false
	}
	if c.WorkItemType != "" && row.TypeName() != c.WorkItemType {
		return false
	}
	if c.WorkItemID != 0 && row.WorkItemID != c.WorkItemID {
		return false
	}
	return true
}

type Engine struct {
	store  docstore.Store
	logger *zap.Logger
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(store docstore.Store, opts ...Option) *Engine {
	e := &Engine{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadAll returns every time record. A store failure yields an empty result
// so reports show "no data" instead of failing.
func (e *Engine) LoadAll(ctx context.Context) []timeentry.Record {
	records, err := e.Load(ctx)
	if err != nil {
		e.logger.Warn("loading time records failed, reporting empty result", zap.Error(err))
		return []timeentry.Record{}
	}
	return records
}

// Load is LoadAll without the fail-soft fallback. Undecodable records are
// still skipped.
func (e *Engine) Load(ctx context.Context) ([]timeentry.Record, error) {
	docs, err := e.store.GetDocuments(ctx, timeentry.Collection)
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}

	records := make([]timeentry.Record, 0, len(docs))
	for _, doc := range docs {
		record, err := timeentry.DecodeDocument(doc.ID, doc.Data)
		if err != nil {
			e.logger.Warn("skipping undecodable time record", zap.String("record", doc.ID), zap.Error(err))
			continue
		}
		record.Token = doc.Token
		records = append(records, record)
	}
	return records, nil
}

// Query loads, flattens, filters and sorts rows.
func (e *Engine) Query(ctx context.Context, criteria Criteria) []Row {
	rows := Filter(Flatten(e.LoadAll(ctx)), criteria)
	SortRows(rows)
	return rows
}

// Flatten yields one row per daily log.
func Flatten(records []timeentry.Record) []Row {
	rows := make([]Row, 0, len(records)*4)
	for _, record := range records {
		for _, log := range record.Logs {
			rows = append(rows, Row{
				WorkItemID:    record.WorkItemID,
				WorkItemTitle: record.WorkItemTitle,
				WorkItemType:  record.WorkItemType,
				ProjectID:     record.ProjectID,
				ProjectName:   record.ProjectName,
				UserID:        record.UserID,
				UserName:      record.UserName,
				Description:   record.Description,
				Date:          log.Date,
				Hours:         log.Hours,
			})
		}
	}
	return rows
}

func Filter(rows []Row, criteria Criteria) []Row {
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if criteria.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// SortRows orders rows newest date first, then by work item and user.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		if rows[i].WorkItemID != rows[j].WorkItemID {
			return rows[i].WorkItemID < rows[j].WorkItemID
		}
		return rows[i].UserID < rows[j].UserID
	})
}
