package cmd

import (
	"github.com/spf13/cobra"

	"worktally/report"
)

type filterFlags struct {
	from       string
	to         string
	userID     string
	itemType   string
	workItemID int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "First day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.to, "to", "", "Last day to include, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.userID, "user", "", "Only rows of this user id")
	cmd.Flags().StringVar(&f.itemType, "type", "", "Only rows of this work item type")
	cmd.Flags().IntVar(&f.workItemID, "item", 0, "Only rows of this work item id")
}

func (f *filterFlags) criteria() (report.Criteria, error) {
	return report.Criteria{
		From:         f.from,
		To:           f.to,
		UserID:       f.userID,
		WorkItemType: f.itemType,
		WorkItemID:   f.workItemID,
	}.Normalize()
}
