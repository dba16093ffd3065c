package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"worktally/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage worktally configuration file values.",
	Long: `Create, edit, display, and delete the worktally configuration file.

The configuration selects where records live and who you are:
- store.driver / store.path / store.dsn
- log.level / log.format
- notify.driver / notify.fallback / notify.file / notify.redis_*
- user.id / user.name
- report.top_n

Every key can be overridden by an environment variable, e.g.
WORKTALLY_STORE_DRIVER=memory.

create, edit and "show --check" open the configured store and notifier once,
so a wrong path, DSN or Redis address shows up before the first "log".`,
	Example: `
  # Create a config for a shared postgres store
  worktally config create --store postgres --dsn postgres://wt@db/worktally --user alice

  # Show active config and check that the store answers
  worktally config show --check

  # Open active config in editor (creates example if missing)
  worktally config edit

  # Delete active config file and its sqlite database
  worktally config delete --purge
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// configPath picks the --configFile flag, then the file viper loaded, then
// $HOME/.worktally.yaml.
func configPath(flagValue, loaded string) (string, error) {
	for _, candidate := range []string{flagValue, loaded} {
		if strings.TrimSpace(candidate) != "" {
			return candidate, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".worktally.yaml"), nil
}

// writeConfigFile writes content to path unless a file is already there.
func writeConfigFile(path, content string, overwrite bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return false, nil
	} else if err != nil && !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("writing config file failed: %w", err)
	}
	return true, nil
}

// checkConfig opens the configured store and notifier and reads from both
// the settings and the time record collections.
func checkConfig(ctx context.Context, out io.Writer, cfg *config.Config) error {
	a, err := openAppWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("config check: %w", err)
	}
	defer a.Close()

	current, err := a.settings().Get(ctx)
	if err != nil {
		return fmt.Errorf("config check: read settings: %w", err)
	}
	records, err := a.reports().Load(ctx)
	if err != nil {
		return fmt.Errorf("config check: %w", err)
	}

	fmt.Fprintf(out, "Store %s reachable: %d time records, hour increment %s\n",
		cfg.Store.Driver, len(records), formatHours(current.HourIncrement))
	notifier := cfg.Notify.Driver
	if cfg.Notify.Fallback != "" {
		notifier += " + " + cfg.Notify.Fallback
	}
	fmt.Fprintf(out, "Notifier %s ready\n", notifier)
	return nil
}
