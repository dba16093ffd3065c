// Package web serves the JSON API over time entries, reports and settings.
// It is meant for a trusted local network and has no authentication.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"worktally/aggregator"
	"worktally/docstore"
	"worktally/notify"
	"worktally/report"
	"worktally/settings"
	"worktally/timeentry"
)

type Server struct {
	entries *aggregator.Service
	reports *report.Engine
	prefs   *settings.Store
	logger  *zap.Logger
	topN    int

	mux *http.ServeMux

	mu          sync.RWMutex
	records     []timeentry.Record
	localLoaded bool
	generation  uint64

	localLoadMu sync.Mutex
}

type Option func(*Server)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTopN limits the groups returned by /api/summary. Zero or less returns
// every group.
func WithTopN(n int) Option {
	return func(s *Server) {
		s.topN = n
	}
}

type entryRequest struct {
	WorkItemID    int     `json:"workItemId"`
	UserID        string  `json:"userId"`
	UserName      string  `json:"userName"`
	Date          string  `json:"date"`
	Hours         float64 `json:"hours"`
	Notes         string  `json:"notes"`
	WorkItemTitle string  `json:"workItemTitle"`
	WorkItemType  string  `json:"workItemType"`
	ProjectID     string  `json:"projectId"`
	ProjectName   string  `json:"projectName"`
	Description   string  `json:"description"`
}

type totalResponse struct {
	WorkItemID int     `json:"workItemId"`
	TotalHours float64 `json:"totalHours"`
}

func NewServer(entries *aggregator.Service, reports *report.Engine, prefs *settings.Store, opts ...Option) *Server {
	server := &Server{
		entries: entries,
		reports: reports,
		prefs:   prefs,
		logger:  zap.NewNop(),
		topN:    report.DefaultTopN,
	}
	for _, opt := range opts {
		opt(server)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/entries", server.handleAPIEntrySet)
	mux.HandleFunc("GET /api/entries/{workItemId}/{userId}", server.handleAPIEntryGet)
	mux.HandleFunc("DELETE /api/entries/{workItemId}/{userId}", server.handleAPIEntryDelete)
	mux.HandleFunc("GET /api/workitems/{workItemId}/total", server.handleAPIWorkItemTotal)
	mux.HandleFunc("GET /api/rows", server.handleAPIRows)
	mux.HandleFunc("GET /api/summary", server.handleAPISummary)
	mux.HandleFunc("GET /api/export.csv", server.handleAPIExportCSV)
	mux.HandleFunc("GET /api/settings", server.handleAPISettingsGet)
	mux.HandleFunc("PATCH /api/settings", server.handleAPISettingsPatch)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Watch drops the record cache whenever another writer reports a change.
// It returns once the subscription is established; events are consumed
// until ctx is done.
func (s *Server) Watch(ctx context.Context, sub notify.Subscriber) error {
	events, err := sub.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to changes: %w", err)
	}
	go func() {
		for event := range events {
			switch event.Kind {
			case notify.KindEntryChanged, notify.KindEntryDeleted:
				s.logger.Debug("time records changed, dropping cache", zap.String("kind", event.Kind), zap.String("key", event.Key))
				s.invalidateLocalCache()
			}
		}
	}()
	return nil
}

func (s *Server) handleAPIEntrySet(w http.ResponseWriter, r *http.Request) {
	var body entryRequest
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Hours < 0 {
		http.Error(w, "hours must be >= 0", http.StatusBadRequest)
		return
	}

	current, err := s.prefs.Get(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("load settings: %v", err), errorStatus(err))
		return
	}

	record, err := s.entries.SetEntry(r.Context(), aggregator.Entry{
		WorkItemID: body.WorkItemID,
		UserID:     strings.TrimSpace(body.UserID),
		Date:       body.Date,
		Hours:      settings.RoundToIncrement(body.Hours, current.HourIncrement),
		Notes:      body.Notes,
		Metadata: timeentry.Metadata{
			WorkItemTitle: body.WorkItemTitle,
			WorkItemType:  body.WorkItemType,
			ProjectID:     body.ProjectID,
			ProjectName:   body.ProjectName,
			UserName:      body.UserName,
			Description:   body.Description,
		},
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("set entry: %v", err), errorStatus(err))
		return
	}

	s.invalidateLocalCache()
	writeJSON(w, http.StatusOK, newRecordView(record))
}

func (s *Server) handleAPIEntryGet(w http.ResponseWriter, r *http.Request) {
	workItemID, userID, err := parseEntryPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, found, err := s.entries.GetEntry(r.Context(), workItemID, userID)
	if err != nil {
		http.Error(w, fmt.Sprintf("get entry: %v", err), errorStatus(err))
		return
	}
	if !found {
		http.Error(w, "entry not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, newRecordView(record))
}

func (s *Server) handleAPIEntryDelete(w http.ResponseWriter, r *http.Request) {
	workItemID, userID, err := parseEntryPath(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.entries.DeleteEntry(r.Context(), workItemID, userID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("delete entry: %v", err), errorStatus(err))
		return
	}

	s.invalidateLocalCache()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIWorkItemTotal(w http.ResponseWriter, r *http.Request) {
	workItemID, err := parseWorkItemID(r.PathValue("workItemId"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	total, err := s.entries.GetTotalHours(r.Context(), workItemID)
	if err != nil {
		http.Error(w, fmt.Sprintf("total hours: %v", err), errorStatus(err))
		return
	}

	writeJSON(w, http.StatusOK, totalResponse{WorkItemID: workItemID, TotalHours: report.RoundHours(total)})
}

func (s *Server) handleAPIRows(w http.ResponseWriter, r *http.Request) {
	rows, err := s.queryRows(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	rows, err := s.queryRows(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	topN := s.topN
	if raw := strings.TrimSpace(r.URL.Query().Get("top")); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid top value", http.StatusBadRequest)
			return
		}
	}

	writeJSON(w, http.StatusOK, limitSummary(report.Summarize(rows), topN))
}

func (s *Server) handleAPIExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.queryRows(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="worktally.csv"`)
	if err := report.WriteCSV(w, rows); err != nil {
		s.logger.Warn("writing csv export failed", zap.Error(err))
	}
}

func (s *Server) handleAPISettingsGet(w http.ResponseWriter, r *http.Request) {
	current, err := s.prefs.Get(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("load settings: %v", err), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) handleAPISettingsPatch(w http.ResponseWriter, r *http.Request) {
	var body settings.Partial
	if err := decodeJSON(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := s.prefs.Save(r.Context(), body)
	if err != nil {
		http.Error(w, fmt.Sprintf("save settings: %v", err), errorStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) queryRows(r *http.Request) ([]report.Row, error) {
	criteria, err := criteriaFromQuery(r)
	if err != nil {
		return nil, err
	}
	records := s.loadRecords(r.Context())
	rows := report.Filter(report.Flatten(records), criteria)
	report.SortRows(rows)
	return rows, nil
}

// loadRecords serves the cached records, reloading after invalidation.
// A failed load is reported as no data and is not cached.
func (s *Server) loadRecords(ctx context.Context) []timeentry.Record {
	s.mu.RLock()
	if s.localLoaded {
		records := s.records
		s.mu.RUnlock()
		return records
	}
	s.mu.RUnlock()

	s.localLoadMu.Lock()
	defer s.localLoadMu.Unlock()

	s.mu.RLock()
	if s.localLoaded {
		records := s.records
		s.mu.RUnlock()
		return records
	}
	generation := s.generation
	s.mu.RUnlock()

	records, err := s.reports.Load(ctx)
	if err != nil {
		s.logger.Warn("loading time records failed, reporting empty result", zap.Error(err))
		return []timeentry.Record{}
	}

	s.mu.Lock()
	// An invalidation during the load means records may already be stale.
	if s.generation == generation {
		s.records = records
		s.localLoaded = true
	}
	s.mu.Unlock()
	return records
}

func (s *Server) invalidateLocalCache() {
	s.mu.Lock()
	s.records = nil
	s.localLoaded = false
	s.generation++
	s.mu.Unlock()
}

func criteriaFromQuery(r *http.Request) (report.Criteria, error) {
	query := r.URL.Query()
	criteria := report.Criteria{
		From:         strings.TrimSpace(query.Get("from")),
		To:           strings.TrimSpace(query.Get("to")),
		UserID:       strings.TrimSpace(query.Get("user")),
		WorkItemType: strings.TrimSpace(query.Get("type")),
	}
	if raw := strings.TrimSpace(query.Get("workItem")); raw != "" {
		id, err := parseWorkItemID(raw)
		if err != nil {
			return report.Criteria{}, err
		}
		criteria.WorkItemID = id
	}
	return criteria.Normalize()
}

func parseEntryPath(r *http.Request) (int, string, error) {
	workItemID, err := parseWorkItemID(r.PathValue("workItemId"))
	if err != nil {
		return 0, "", err
	}
	userID := strings.TrimSpace(r.PathValue("userId"))
	if userID == "" {
		return 0, "", fmt.Errorf("user id is required")
	}
	return workItemID, userID, nil
}

func parseWorkItemID(value string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid work item id %q", value)
	}
	return id, nil
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func errorStatus(err error) int {
	var invalid validator.ValidationErrors
	switch {
	case errors.Is(err, docstore.ErrStaleWrite):
		return http.StatusConflict
	case errors.Is(err, docstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, aggregator.ErrInvalidEntry),
		errors.Is(err, aggregator.ErrInvalidDate),
		errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, docstore.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
