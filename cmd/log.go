package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"worktally/aggregator"
	"worktally/internal/timeutil"
	"worktally/settings"
	"worktally/timeentry"
)

var (
	logWorkItemID  int
	logUserID      string
	logUserName    string
	logDate        string
	logHours       float64
	logNotes       string
	logTitle       string
	logType        string
	logProjectID   string
	logProjectName string
	logDescription string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record hours for a work item on one day",
	Long: `Record hours for a work item, user and day.

A second log for the same day replaces the earlier value; every write is kept
in the record's audit trail. Hours are rounded to the configured hour
increment (see "worktally settings"). Work item details given here overwrite
the details stored on the record.`,
	Example: `
  # Log 3 hours for today as the configured user
  worktally log --item 42 --hours 3

  # Log for a specific day and user with work item details
  worktally log --item 42 --user alice --date 2024-01-01 --hours 2.5 \
    --title "Fix login" --type Bug --project-id p1 --project "Portal"
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if logHours < 0 {
			return fmt.Errorf("--hours must be >= 0")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := resolveUser(logUserID, a.cfg.User.ID)
		if err != nil {
			return err
		}
		userName := logUserName
		if strings.TrimSpace(userName) == "" && userID == a.cfg.User.ID {
			userName = a.cfg.User.Name
		}

		date := logDate
		if strings.TrimSpace(date) == "" {
			date = timeutil.FormatDate(time.Now())
		}

		current, err := a.settings().Get(cmd.Context())
		if err != nil {
			return err
		}
		hours := settings.RoundToIncrement(logHours, current.HourIncrement)

		record, err := a.entries().SetEntry(cmd.Context(), aggregator.Entry{
			WorkItemID: logWorkItemID,
			UserID:     userID,
			Date:       date,
			Hours:      hours,
			Notes:      logNotes,
			Metadata: timeentry.Metadata{
				WorkItemTitle: logTitle,
				WorkItemType:  logType,
				ProjectID:     logProjectID,
				ProjectName:   logProjectName,
				UserName:      userName,
				Description:   logDescription,
			},
		})
		if err != nil {
			return err
		}

		last := record.AuditLog[len(record.AuditLog)-1]
		fmt.Printf("Logged %s h on #%d for %s (%s, was %s h). Record total: %s h\n",
			formatHours(hours), record.WorkItemID, date, last.Action,
			formatHours(last.PreviousHours), formatHours(record.TotalHours()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(logCmd)

	logCmd.Flags().IntVar(&logWorkItemID, "item", 0, "Work item id")
	logCmd.Flags().StringVar(&logUserID, "user", "", "User id (default: user.id from config)")
	logCmd.Flags().StringVar(&logUserName, "user-name", "", "User display name (default: user.name from config)")
	logCmd.Flags().StringVar(&logDate, "date", "", "Day in YYYY-MM-DD (default: today)")
	logCmd.Flags().Float64Var(&logHours, "hours", 0, "Hours worked on that day")
	logCmd.Flags().StringVar(&logNotes, "notes", "", "Note stored with the audit event")
	logCmd.Flags().StringVar(&logTitle, "title", "", "Work item title")
	logCmd.Flags().StringVar(&logType, "type", "", "Work item type, e.g. Bug or Task")
	logCmd.Flags().StringVar(&logProjectID, "project-id", "", "Project id")
	logCmd.Flags().StringVar(&logProjectName, "project", "", "Project name")
	logCmd.Flags().StringVar(&logDescription, "description", "", "Work item description")

	_ = logCmd.MarkFlagRequired("item")
	_ = logCmd.MarkFlagRequired("hours")
}
