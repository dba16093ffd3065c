package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktally/config"
)

var (
	configDeleteYes   bool
	configDeletePurge bool
)

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by worktally.

With --purge the local files the configuration points at are removed as well:
the sqlite database (store.driver sqlite) and the notification signal file.
Postgres and Redis data is never touched. Requires typing "Y" unless --yes.`,
	Example: `
  # Delete active config
  worktally config delete

  # Delete config at a custom path together with its sqlite database
  worktally --configFile ./custom-worktally.yaml config delete --purge --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			return fmt.Errorf("no configuration file found")
		}
		return deleteConfig(deletePromptInput, os.Stdout, path, configDeletePurge, configDeleteYes)
	},
}

func init() {
	configCmd.AddCommand(configDeleteCmd)

	configDeleteCmd.Flags().BoolVarP(&configDeleteYes, "yes", "y", false, "Skip the confirmation prompt")
	configDeleteCmd.Flags().BoolVar(&configDeletePurge, "purge", false, "Also remove the local sqlite database and signal file")
}

// purgeTargets lists the local files a configuration owns.
func purgeTargets(cfg *config.Config) []string {
	var targets []string
	if cfg.Store.Driver == "sqlite" && cfg.Store.Path != "" {
		targets = append(targets, cfg.Store.Path)
	}
	if cfg.Notify.File != "" && (cfg.Notify.Driver == config.NotifyFile || cfg.Notify.Fallback == config.NotifyFile) {
		targets = append(targets, cfg.Notify.File)
	}
	return targets
}

func deleteConfig(input io.Reader, out io.Writer, path string, purge, yes bool) error {
	targets := []string{path}
	if purge {
		cfg, err := loadConfigFile(path)
		if err != nil {
			return fmt.Errorf("cannot purge: %w", err)
		}
		targets = append(targets, purgeTargets(cfg)...)
	}

	if !yes {
		confirmed, err := confirmDeletePrompt(input, out, fmt.Sprintf("%v", targets))
		if err != nil {
			return err
		}
		if !confirmed {
			return fmt.Errorf("delete aborted: confirmation was not 'Y'")
		}
	}

	for _, target := range targets {
		if err := os.Remove(target); err != nil {
			if purge && target != path && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("error deleting %s: %w", target, err)
		}
		fmt.Fprintf(out, "Deleted: %s\n", target)
	}
	return nil
}
