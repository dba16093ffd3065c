package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Headers is the export schema: one line per daily log. User holds the
// display name; User ID and the trailing snapshot columns let an export
// import back onto the same records.
var Headers = []string{
	"Work Item", "Type", "Hours", "User", "Description", "Date",
	"User ID", "Title", "Project ID", "Project",
}

type Writer interface {
	Write(path string, rows []Row) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{TopN: DefaultTopN}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DetectFormat infers the export format from a file extension, defaulting to csv.
func DetectFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func rowValues(row Row) []string {
	return []string{
		fmt.Sprintf("#%d", row.WorkItemID),
		row.TypeName(),
		formatHours(row.Hours),
		row.UserDisplayName(),
		row.Description,
		row.Date,
		row.UserID,
		row.WorkItemTitle,
		row.ProjectID,
		row.ProjectName,
	}
}
