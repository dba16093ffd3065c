// Package timeentry defines the per-(work item, user) time record, its daily
// logs and its audit trail.
package timeentry

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Collection is the document collection holding time records.
const Collection = "TimeEntries"

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// DailyLog is the hours booked on one calendar date. A record holds at most
// one log per date.
type DailyLog struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// AuditEvent describes one write. Events are appended and never modified.
type AuditEvent struct {
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	Action        Action    `json:"action"`
	PreviousHours float64   `json:"previousHours"`
	NewHours      float64   `json:"newHours"`
	Notes         string    `json:"notes,omitempty"`
}

// Metadata is the denormalized work item snapshot captured on every write.
type Metadata struct {
	WorkItemTitle string
	WorkItemType  string
	ProjectID     string
	ProjectName   string
	UserName      string
	Description   string
}

// Record aggregates all hours one user logged against one work item.
type Record struct {
	WorkItemID    int
	UserID        string
	UserName      string
	WorkItemTitle string
	WorkItemType  string
	ProjectID     string
	ProjectName   string
	Description   string
	Logs          []DailyLog
	AuditLog      []AuditEvent
	CreatedAt     time.Time
	UpdatedAt     time.Time

	// Token is the store's concurrency token from the last read or write.
	// Empty for records that were never persisted.
	Token string
}

// RecordID returns the deterministic document id for a (work item, user) pair.
// Work item ids are decimal, so the first underscore always splits the key.
func RecordID(workItemID int, userID string) string {
	return strconv.Itoa(workItemID) + "_" + userID
}

// ParseRecordID splits an id built by RecordID.
func ParseRecordID(id string) (int, string, error) {
	rawWorkItem, userID, ok := strings.Cut(id, "_")
	if !ok || userID == "" {
		return 0, "", fmt.Errorf("invalid record id %q", id)
	}
	workItemID, err := strconv.Atoi(rawWorkItem)
	if err != nil {
		return 0, "", fmt.Errorf("invalid work item id in record id %q: %w", id, err)
	}
	return workItemID, userID, nil
}

func (r Record) ID() string {
	return RecordID(r.WorkItemID, r.UserID)
}

// LogIndex returns the index of the log for date, or -1.
func (r Record) LogIndex(date string) int {
	for i, log := range r.Logs {
		if log.Date == date {
			return i
		}
	}
	return -1
}

func (r Record) TotalHours() float64 {
	total := 0.0
	for _, log := range r.Logs {
		total += log.Hours
	}
	return total
}

// Metadata returns the record's current snapshot.
func (r Record) Metadata() Metadata {
	return Metadata{
		WorkItemTitle: r.WorkItemTitle,
		WorkItemType:  r.WorkItemType,
		ProjectID:     r.ProjectID,
		ProjectName:   r.ProjectName,
		UserName:      r.UserName,
		Description:   r.Description,
	}
}

// Merge fills blank fields of m from base.
func (m Metadata) Merge(base Metadata) Metadata {
	pick := func(value, fallback string) string {
		if strings.TrimSpace(value) == "" {
			return fallback
		}
		return value
	}
	return Metadata{
		WorkItemTitle: pick(m.WorkItemTitle, base.WorkItemTitle),
		WorkItemType:  pick(m.WorkItemType, base.WorkItemType),
		ProjectID:     pick(m.ProjectID, base.ProjectID),
		ProjectName:   pick(m.ProjectName, base.ProjectName),
		UserName:      pick(m.UserName, base.UserName),
		Description:   pick(m.Description, base.Description),
	}
}

// ApplyMetadata overwrites the denormalized snapshot fields.
func (r *Record) ApplyMetadata(meta Metadata) {
	r.WorkItemTitle = meta.WorkItemTitle
	r.WorkItemType = meta.WorkItemType
	r.ProjectID = meta.ProjectID
	r.ProjectName = meta.ProjectName
	r.UserName = meta.UserName
	r.Description = meta.Description
}
