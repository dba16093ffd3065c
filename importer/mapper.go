package importer

import (
	"fmt"

	"worktally/aggregator"
	"worktally/report"
	"worktally/timeentry"
)

// Column aliases, first match wins. The defaults match the export headers,
// so exported files import back unchanged.
var (
	columnWorkItem    = []string{"Work Item", "Work Item ID", "WorkItemId", "Item"}
	columnUserID      = []string{"User ID", "UserId"}
	columnUser        = []string{"User"}
	columnUserName    = []string{"User Name"}
	columnDate        = []string{"Date", "Day"}
	columnHours       = []string{"Hours"}
	columnType        = []string{"Type", "Work Item Type"}
	columnTitle       = []string{"Title", "Work Item Title"}
	columnDescription = []string{"Description"}
	columnProjectID   = []string{"Project ID", "ProjectId"}
	columnProject     = []string{"Project", "Project Name"}
	columnNotes       = []string{"Notes", "Note"}
)

// mapRecord turns one row into an entry. Rows without any value are skipped
// (ok == false). defaultUser fills rows that carry no user column.
func mapRecord(record Record, defaultUser string) (aggregator.Entry, bool, error) {
	if record.blank() {
		return aggregator.Entry{}, false, nil
	}

	workItemID, err := parseWorkItemID(record.Get(columnWorkItem...))
	if err != nil {
		return aggregator.Entry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}

	// Exports carry the id in User ID and the display name in User.
	userID := record.Get(columnUserID...)
	userName := record.Get(columnUserName...)
	if userID == "" {
		userID = record.Get(columnUser...)
	} else if display := record.Get(columnUser...); userName == "" && display != userID {
		userName = display
	}
	if userID == "" {
		userID = defaultUser
	}
	if userID == "" {
		return aggregator.Entry{}, false, fmt.Errorf("row %d: user is missing", record.RowNumber)
	}

	date, err := parseDate(record.Get(columnDate...))
	if err != nil {
		return aggregator.Entry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}
	hours, err := parseHours(record.Get(columnHours...))
	if err != nil {
		return aggregator.Entry{}, false, fmt.Errorf("row %d: %w", record.RowNumber, err)
	}

	itemType := record.Get(columnType...)
	if itemType == report.UnknownType {
		itemType = ""
	}

	return aggregator.Entry{
		WorkItemID: workItemID,
		UserID:     userID,
		Date:       date,
		Hours:      hours,
		Notes:      record.Get(columnNotes...),
		Metadata: timeentry.Metadata{
			WorkItemTitle: record.Get(columnTitle...),
			WorkItemType:  itemType,
			ProjectID:     record.Get(columnProjectID...),
			ProjectName:   record.Get(columnProject...),
			UserName:      userName,
			Description:   record.Get(columnDescription...),
		},
	}, true, nil
}
