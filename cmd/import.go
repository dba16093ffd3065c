package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"worktally/importer"
)

var (
	importInputs []string
	importFormat string
	importUserID string
	importDryRun bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import daily hours from CSV or Excel files",
	Long: `Import daily hours from CSV or Excel files.

Each row is applied like "worktally log": it replaces the hours of that work
item, user and day and adds an audit event. The export format imports back
unchanged. Recognized columns (case and spacing ignored):

  Work Item | Item          work item id, "#42" or "42" (required)
  User ID                  user id (default: User, then --user, then user.id)
  User                     display name when User ID is set, else the user id
  Date | Day               YYYY-MM-DD, DD.MM.YYYY or MM/DD/YYYY (required)
  Hours                    "7.5" or "7,5" (required)
  Type, Title, Description, Project, Project ID, User Name, Notes

Empty snapshot columns keep what the record already holds. A file is read
and validated completely before any of its rows is written.`,
	Example: `
  # Import a previous export
  worktally import -i ./hours.csv

  # Validate without writing
  worktally import -i ./january.xlsx -i ./february.xlsx --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		current, err := a.settings().Get(cmd.Context())
		if err != nil {
			return err
		}

		defaultUser := importUserID
		if defaultUser == "" {
			defaultUser = a.cfg.User.ID
		}

		result, err := importer.Run(cmd.Context(), importInputs, a.entries(), importer.Options{
			Format:        importFormat,
			DefaultUser:   defaultUser,
			HourIncrement: current.HourIncrement,
			DryRun:        importDryRun,
			Logger:        a.logger.Named("import"),
		})
		if result != nil {
			mode := "import"
			if importDryRun {
				mode = "dry run"
			}
			fmt.Printf("%s: files %d, rows read %d, imported %d, skipped %d\n",
				mode, result.FilesProcessed, result.RowsRead, result.RowsImported, result.RowsSkipped)
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringArrayVarP(&importInputs, "input", "i", nil, "Input file (repeatable)")
	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "Input format: csv|excel (optional, inferred from extension)")
	importCmd.Flags().StringVar(&importUserID, "user", "", "User id for rows without a user column")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate rows without writing")

	_ = importCmd.MarkFlagRequired("input")
}
