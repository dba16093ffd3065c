package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var totalWorkItemID int

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Print the hours all users logged on a work item",
	Example: `
  worktally total --item 42
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		total, err := a.entries().GetTotalHours(cmd.Context(), totalWorkItemID)
		if err != nil {
			return err
		}
		fmt.Printf("#%d: %s h\n", totalWorkItemID, formatHours(total))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(totalCmd)

	totalCmd.Flags().IntVar(&totalWorkItemID, "item", 0, "Work item id")
	_ = totalCmd.MarkFlagRequired("item")
}
