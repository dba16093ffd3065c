package web

import (
	"time"

	"worktally/report"
	"worktally/timeentry"
)

type recordView struct {
	ID            string                 `json:"id"`
	WorkItemID    int                    `json:"workItemId"`
	UserID        string                 `json:"userId"`
	UserName      string                 `json:"userName"`
	WorkItemTitle string                 `json:"workItemTitle"`
	WorkItemType  string                 `json:"workItemType"`
	ProjectID     string                 `json:"projectId"`
	ProjectName   string                 `json:"projectName"`
	Description   string                 `json:"description"`
	Logs          []timeentry.DailyLog   `json:"logs"`
	AuditLog      []timeentry.AuditEvent `json:"auditLog"`
	TotalHours    float64                `json:"totalHours"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
	Token         string                 `json:"token"`
}

func newRecordView(record timeentry.Record) recordView {
	logs := record.Logs
	if logs == nil {
		logs = []timeentry.DailyLog{}
	}
	audit := record.AuditLog
	if audit == nil {
		audit = []timeentry.AuditEvent{}
	}
	return recordView{
		ID:            record.ID(),
		WorkItemID:    record.WorkItemID,
		UserID:        record.UserID,
		UserName:      record.UserName,
		WorkItemTitle: record.WorkItemTitle,
		WorkItemType:  record.WorkItemType,
		ProjectID:     record.ProjectID,
		ProjectName:   record.ProjectName,
		Description:   record.Description,
		Logs:          logs,
		AuditLog:      audit,
		TotalHours:    report.RoundHours(record.TotalHours()),
		CreatedAt:     record.CreatedAt,
		UpdatedAt:     record.UpdatedAt,
		Token:         record.Token,
	}
}

// limitSummary ranks groups by hours and keeps the n largest per dimension,
// or all of them for n <= 0. Totals still cover every row.
func limitSummary(summary report.Summary, n int) report.Summary {
	if n <= 0 {
		n = -1
	}
	summary.ByUser = report.Top(summary.ByUser, n)
	summary.ByType = report.Top(summary.ByType, n)
	summary.ByWorkItem = report.Top(summary.ByWorkItem, n)
	return summary
}
