package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worktally/report"
)

var (
	reportFilter filterFlags
	reportTopN   int
	reportRows   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize logged hours by user, type and work item",
	Long: `Summarize logged hours.

Totals cover every matching daily log. The per-user, per-type and per-work-item
tables list the groups with most hours first, limited to --top entries
(default: report.top_n from config, 0 shows all).

If the store cannot be read, the report is empty instead of failing.`,
	Example: `
  # Everything
  worktally report

  # January, bugs only, with the underlying rows
  worktally report --from 2024-01-01 --to 2024-01-31 --type Bug --rows
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		criteria, err := reportFilter.criteria()
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		topN := a.cfg.Report.TopN
		if cmd.Flags().Changed("top") {
			topN = reportTopN
		}

		rows := a.reports().Query(cmd.Context(), criteria)
		if reportRows {
			if err := printRows(os.Stdout, rows); err != nil {
				return err
			}
			fmt.Println()
		}
		return printSummary(os.Stdout, report.Summarize(rows), topN)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportFilter.register(reportCmd)
	reportCmd.Flags().IntVar(&reportTopN, "top", report.DefaultTopN, "Groups per table (0 = all)")
	reportCmd.Flags().BoolVar(&reportRows, "rows", false, "Also print the matching rows")
}

func printRows(out io.Writer, rows []report.Row) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tITEM\tTYPE\tUSER\tHOURS\tTITLE")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t#%d\t%s\t%s\t%s\t%s\n",
			row.Date, row.WorkItemID, row.TypeName(), row.UserDisplayName(), formatHours(row.Hours), row.WorkItemTitle)
	}
	return tw.Flush()
}

func printSummary(out io.Writer, summary report.Summary, topN int) error {
	fmt.Fprintf(out, "Total hours: %s\n", formatHours(summary.TotalHours))
	fmt.Fprintf(out, "Entries: %d\n", summary.EntryCount)
	fmt.Fprintf(out, "Work items: %d\n", summary.WorkItemCount)

	sections := []struct {
		title  string
		groups []report.Group
	}{
		{title: "BY USER", groups: summary.ByUser},
		{title: "BY TYPE", groups: summary.ByType},
		{title: "BY WORK ITEM", groups: summary.ByWorkItem},
	}
	for _, section := range sections {
		limit := topN
		if limit <= 0 {
			limit = -1
		}
		groups := report.Top(section.groups, limit)

		fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\tHOURS\tENTRIES\n", section.title)
		for _, group := range groups {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", group.Label, formatHours(group.Hours), group.Entries)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
