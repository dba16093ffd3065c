package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"worktally/settings"
)

var settingsHourIncrement float64

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the shared settings",
	Long: `The settings document is shared by everyone using the same store.

- hourIncrement: granularity logged hours are rounded to (default 0.5)`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
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
		fmt.Printf("hourIncrement: %s\n", formatHours(current.HourIncrement))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings; unset flags keep their stored value",
	Example: `
  worktally settings set --hour-increment 0.25
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var partial settings.Partial
		if cmd.Flags().Changed("hour-increment") {
			partial.HourIncrement = &settingsHourIncrement
		}
		if partial.HourIncrement == nil {
			return fmt.Errorf("nothing to change: pass at least one setting flag")
		}

		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		saved, err := a.settings().Save(cmd.Context(), partial)
		if err != nil {
			return err
		}
		fmt.Printf("Settings saved. hourIncrement: %s\n", formatHours(saved.HourIncrement))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)

	settingsSetCmd.Flags().Float64Var(&settingsHourIncrement, "hour-increment", settings.DefaultHourIncrement, "Hour granularity, must be > 0")
}
