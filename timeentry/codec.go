package timeentry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"worktally/internal/timeutil"
)

// Stored is the document body of a time record as kept in the store.
//
// Two shapes exist. The current one carries a logs array. Records written by
// the first release carry a single hours value and no logs; Migrate converts
// them.
type Stored struct {
	WorkItemID    WorkItemID   `json:"workItemId"`
	UserID        string       `json:"userId"`
	UserName      string       `json:"userName,omitempty"`
	WorkItemTitle string       `json:"workItemTitle"`
	WorkItemType  string       `json:"workItemType"`
	ProjectID     string       `json:"projectId"`
	ProjectName   string       `json:"projectName"`
	Description   string       `json:"description"`
	Logs          []DailyLog   `json:"logs"`
	AuditLog      []AuditEvent `json:"auditLog"`
	CreatedAt     time.Time    `json:"createdAt,omitzero"`
	UpdatedAt     time.Time    `json:"updatedAt,omitzero"`

	Hours *float64 `json:"hours,omitempty"`
}

type SchemaVersion int

const (
	SchemaSingleValue SchemaVersion = 1
	SchemaMultiLog    SchemaVersion = 2
)

// Version detects the shape of a decoded body.
func (s Stored) Version() SchemaVersion {
	if s.Logs == nil && s.Hours != nil {
		return SchemaSingleValue
	}
	return SchemaMultiLog
}

// Migrate normalizes a stored body to the multi-log shape. It is idempotent.
func Migrate(s Stored) Stored {
	if s.Version() == SchemaSingleValue {
		hours := *s.Hours
		s.Hours = nil
		s.Logs = []DailyLog{{Date: legacyDate(s), Hours: hours}}
	}
	s.Hours = nil
	s.Logs = collapseDates(s.Logs)
	if s.AuditLog == nil {
		s.AuditLog = []AuditEvent{}
	}
	return s
}

// UndatedLegacyDate dates legacy hours whose record carries no timestamp.
const UndatedLegacyDate = "1970-01-01"

func legacyDate(s Stored) string {
	switch {
	case !s.UpdatedAt.IsZero():
		return timeutil.FormatDate(s.UpdatedAt.UTC())
	case !s.CreatedAt.IsZero():
		return timeutil.FormatDate(s.CreatedAt.UTC())
	default:
		return UndatedLegacyDate
	}
}

// collapseDates keeps one log per date: the first position, the last value.
func collapseDates(logs []DailyLog) []DailyLog {
	out := make([]DailyLog, 0, len(logs))
	index := make(map[string]int, len(logs))
	for _, log := range logs {
		if i, ok := index[log.Date]; ok {
			out[i].Hours = log.Hours
			continue
		}
		index[log.Date] = len(out)
		out = append(out, log)
	}
	return out
}

// Decode parses a stored body of either shape into a Record.
func Decode(data []byte) (Record, error) {
	var stored Stored
	if err := json.Unmarshal(data, &stored); err != nil {
		return Record{}, fmt.Errorf("decode time record: %w", err)
	}
	return Migrate(stored).Record(), nil
}

// DecodeDocument decodes a stored body and checks it against its document id.
// Bodies missing the work item or user take them from the id.
func DecodeDocument(id string, data []byte) (Record, error) {
	record, err := Decode(data)
	if err != nil {
		return Record{}, err
	}
	workItemID, userID, err := ParseRecordID(id)
	if err != nil {
		return Record{}, fmt.Errorf("decode time record: %w", err)
	}
	if record.WorkItemID == 0 {
		record.WorkItemID = workItemID
	}
	if record.UserID == "" {
		record.UserID = userID
	}
	if record.ID() != id {
		return Record{}, fmt.Errorf("decode time record: body belongs to %s, stored as %s", record.ID(), id)
	}
	return record, nil
}

// Encode writes the multi-log shape. The concurrency token is not part of the body.
func Encode(r Record) ([]byte, error) {
	data, err := json.Marshal(FromRecord(r))
	if err != nil {
		return nil, fmt.Errorf("encode time record %s: %w", r.ID(), err)
	}
	return data, nil
}

func (s Stored) Record() Record {
	return Record{
		WorkItemID:    int(s.WorkItemID),
		UserID:        s.UserID,
		UserName:      s.UserName,
		WorkItemTitle: s.WorkItemTitle,
		WorkItemType:  s.WorkItemType,
		ProjectID:     s.ProjectID,
		ProjectName:   s.ProjectName,
		Description:   s.Description,
		Logs:          append([]DailyLog{}, s.Logs...),
		AuditLog:      append([]AuditEvent{}, s.AuditLog...),
		CreatedAt:     s.CreatedAt,
		UpdatedAt:     s.UpdatedAt,
	}
}

func FromRecord(r Record) Stored {
	logs := r.Logs
	if logs == nil {
		logs = []DailyLog{}
	}
	audit := r.AuditLog
	if audit == nil {
		audit = []AuditEvent{}
	}
	return Stored{
		WorkItemID:    WorkItemID(r.WorkItemID),
		UserID:        r.UserID,
		UserName:      r.UserName,
		WorkItemTitle: r.WorkItemTitle,
		WorkItemType:  r.WorkItemType,
		ProjectID:     r.ProjectID,
		ProjectName:   r.ProjectName,
		Description:   r.Description,
		Logs:          logs,
		AuditLog:      audit,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// WorkItemID decodes from a JSON number or a numeric string. Older clients
// stored the id as a string.
type WorkItemID int

func (id *WorkItemID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if raw == "null" || raw == "" {
		*id = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("work item id: %w", err)
		}
		raw = strings.TrimSpace(text)
		if raw == "" {
			*id = 0
			return nil
		}
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value != math.Trunc(value) {
		return fmt.Errorf("work item id %s is not an integer", raw)
	}
	*id = WorkItemID(value)
	return nil
}
