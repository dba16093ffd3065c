package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	deleteWorkItemID int
	deleteUserID     string
	deleteYes        bool
)

var (
	deletePromptInput  io.Reader = os.Stdin
	deletePromptOutput io.Writer = os.Stdout
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete one user's record for a work item",
	Long: `Destructive cleanup command.

Deletes the record of one user on one work item, including all daily logs and
the audit trail. Before deletion, an interactive security prompt requires
typing exactly "Y" unless --yes is given.`,
	Example: `
  # Delete with confirmation
  worktally delete --item 42 --user alice

  # Delete without prompting
  worktally delete --item 42 --user alice --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		userID, err := resolveUser(deleteUserID, a.cfg.User.ID)
		if err != nil {
			return err
		}

		if !deleteYes {
			target := fmt.Sprintf("all hours of %s on #%d", userID, deleteWorkItemID)
			confirmed, err := confirmDeletePrompt(deletePromptInput, deletePromptOutput, target)
			if err != nil {
				return err
			}
			if !confirmed {
				return fmt.Errorf("delete aborted: confirmation was not 'Y'")
			}
		}

		if err := a.entries().DeleteEntry(cmd.Context(), deleteWorkItemID, userID); err != nil {
			return err
		}
		fmt.Printf("Deleted record #%d for %s\n", deleteWorkItemID, userID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)

	deleteCmd.Flags().IntVar(&deleteWorkItemID, "item", 0, "Work item id")
	deleteCmd.Flags().StringVar(&deleteUserID, "user", "", "User id (default: user.id from config)")
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")

	_ = deleteCmd.MarkFlagRequired("item")
}

func confirmDeletePrompt(input io.Reader, output io.Writer, target string) (bool, error) {
	if input == nil {
		return false, fmt.Errorf("delete confirmation input is not available")
	}

	if output == nil {
		output = io.Discard
	}

	if _, err := fmt.Fprintf(output, "Delete %s? Type Y to confirm: ", target); err != nil {
		return false, fmt.Errorf("write delete confirmation prompt: %w", err)
	}

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			line = strings.TrimSpace(line)
			return line == "Y", nil
		}
		return false, fmt.Errorf("read delete confirmation: %w", err)
	}
	return strings.TrimSpace(line) == "Y", nil
}
