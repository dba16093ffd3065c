package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"worktally/timeentry"
)

var (
	showWorkItemID int
	showUserID     string
	showAudit      bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show one user's record for a work item",
	Long: `Show the daily logs of one user on one work item, optionally with the
audit trail of every write.`,
	Example: `
  # Daily logs of the configured user
  worktally show --item 42

  # Include the audit trail
  worktally show --item 42 --user alice --audit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := resolveUser(showUserID, a.cfg.User.ID)
		if err != nil {
			return err
		}

		record, found, err := a.entries().GetEntry(cmd.Context(), showWorkItemID, userID)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no hours recorded on #%d for %s", showWorkItemID, userID)
		}

		return printRecord(os.Stdout, record, showAudit)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().IntVar(&showWorkItemID, "item", 0, "Work item id")
	showCmd.Flags().StringVar(&showUserID, "user", "", "User id (default: user.id from config)")
	showCmd.Flags().BoolVar(&showAudit, "audit", false, "Print the audit trail")

	_ = showCmd.MarkFlagRequired("item")
}

func printRecord(out io.Writer, record timeentry.Record, audit bool) error {
	title := record.WorkItemTitle
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(out, "#%d %s [%s]\n", record.WorkItemID, title, record.WorkItemType)
	user := record.UserID
	if record.UserName != "" {
		user = fmt.Sprintf("%s (%s)", record.UserName, record.UserID)
	}
	fmt.Fprintf(out, "User: %s\n", user)
	if record.ProjectName != "" || record.ProjectID != "" {
		fmt.Fprintf(out, "Project: %s %s\n", record.ProjectID, record.ProjectName)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tHOURS")
	for _, log := range record.Logs {
		fmt.Fprintf(tw, "%s\t%s\n", log.Date, formatHours(log.Hours))
	}
	fmt.Fprintf(tw, "TOTAL\t%s\n", formatHours(record.TotalHours()))
	if err := tw.Flush(); err != nil {
		return err
	}

	if !audit {
		return nil
	}

	fmt.Fprintln(out)
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tUSER\tACTION\tPREVIOUS\tNEW\tNOTES")
	for _, event := range record.AuditLog {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			event.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			event.UserID,
			event.Action,
			formatHours(event.PreviousHours),
			formatHours(event.NewHours),
			event.Notes,
		)
	}
	return tw.Flush()
}
