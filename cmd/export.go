package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"worktally/report"
)

var (
	exportFormat string
	exportOutput string
	exportFilter filterFlags
	exportTopN   int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export logged hours to CSV/Excel",
	Long: `Export one row per work item, user and day.

Columns: Work Item, Type, Hours, User, Description, Date.
Excel exports add a "Summary" sheet with totals and the top users and types.

Output format can be selected explicitly via --format or inferred from --output extension.`,
	Example: `
  # Export all rows to CSV
  worktally export --output ./hours.csv

  # Export January to Excel
  worktally export --from 2024-01-01 --to 2024-01-31 --output ./hours.xlsx

  # Force Excel format independent of extension
  worktally export --format excel --output ./hours.out
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := exportFormat
		if strings.TrimSpace(format) == "" {
			format = report.DetectFormat(exportOutput)
		}
		writer, err := report.WriterForFormat(format)
		if err != nil {
			return err
		}

		criteria, err := exportFilter.criteria()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if excel, ok := writer.(*report.ExcelWriter); ok {
			excel.TopN = a.cfg.Report.TopN
			if cmd.Flags().Changed("top") {
				excel.TopN = exportTopN
			}
		}

		rows := a.reports().Query(cmd.Context(), criteria)
		if err := writer.Write(exportOutput, rows); err != nil {
			return err
		}
		fmt.Printf("Export completed. Rows: %d, Format: %s, File: %s\n", len(rows), format, exportOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().IntVar(&exportTopN, "top", report.DefaultTopN, "Groups per summary table in Excel exports (0 = all)")
	exportFilter.register(exportCmd)

	_ = exportCmd.MarkFlagRequired("output")
}
