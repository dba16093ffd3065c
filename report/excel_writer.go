package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// ExcelWriter writes the rows to the first sheet and totals plus ranked
// groups to a second sheet.
type ExcelWriter struct {
	// TopN limits the ranked groups. Zero or less lists all of them.
	TopN int
}

func (w *ExcelWriter) Write(path string, rows []Row) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	for col, header := range Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, row := range rows {
		values := []any{
			fmt.Sprintf("#%d", row.WorkItemID),
			row.TypeName(),
			row.Hours,
			row.UserDisplayName(),
			row.Description,
			row.Date,
			row.UserID,
			row.WorkItemTitle,
			row.ProjectID,
			row.ProjectName,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := w.writeSummary(file, Summarize(rows)); err != nil {
		return err
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}

func (w *ExcelWriter) writeSummary(file *excelize.File, summary Summary) error {
	if _, err := file.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	// Top keeps every group for a negative n.
	topN := w.TopN
	if topN <= 0 {
		topN = -1
	}

	lines := [][]any{
		{"Total Hours", RoundHours(summary.TotalHours)},
		{"Entries", summary.EntryCount},
		{"Work Items", summary.WorkItemCount},
		{},
		{"User", "Hours"},
	}
	for _, group := range Top(summary.ByUser, topN) {
		lines = append(lines, []any{group.Label, RoundHours(group.Hours)})
	}
	lines = append(lines, []any{}, []any{"Type", "Hours"})
	for _, group := range Top(summary.ByType, topN) {
		lines = append(lines, []any{group.Label, RoundHours(group.Hours)})
	}

	for i, line := range lines {
		for col, value := range line {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+1)
			if err := file.SetCellValue(summarySheet, cell, value); err != nil {
				return fmt.Errorf("set summary value %s: %w", cell, err)
			}
		}
	}
	return nil
}
