package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktally/config"
)

// configCreateOptions are the values "config create" writes over the defaults.
type configCreateOptions struct {
	storeDriver string
	storePath   string
	storeDSN    string
	notify      string
	notifyFile  string
	fallback    string
	userID      string
	userName    string
	force       bool
	check       bool
}

var createOpts configCreateOptions

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file for a store and user.",
	Long: `Create a configuration file from the defaults and the given flags.

The file is validated before it is written. An existing file is kept unless
--force is given. Unless --check=false, the new store and notifier are opened
once so connection problems show up immediately.`,
	Example: `
  # Local sqlite store in $HOME/.worktally.yaml
  worktally config create --user alice --user-name "Alice Smith"

  # Shared postgres store, processes on this machine notified via a file
  worktally config create --store postgres --dsn postgres://wt@db/worktally --notify file --notify-file /tmp/worktally.signal
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		return createConfig(cmd.Context(), os.Stdout, path, createOpts)
	},
}

func init() {
	configCmd.AddCommand(configCreateCmd)

	flags := configCreateCmd.Flags()
	flags.StringVar(&createOpts.storeDriver, "store", "", "Store driver: sqlite|postgres|memory")
	flags.StringVar(&createOpts.storePath, "store-path", "", "SQLite database file")
	flags.StringVar(&createOpts.storeDSN, "dsn", "", "Postgres connection string")
	flags.StringVar(&createOpts.notify, "notify", "", "Change notification driver: local|file|redis")
	flags.StringVar(&createOpts.notifyFile, "notify-file", "", "Signal file for the file driver or fallback")
	flags.StringVar(&createOpts.fallback, "notify-fallback", "", "Second notification channel: local|file")
	flags.StringVar(&createOpts.userID, "user", "", "Your user id")
	flags.StringVar(&createOpts.userName, "user-name", "", "Your display name")
	flags.BoolVar(&createOpts.force, "force", false, "Overwrite an existing config file")
	flags.BoolVar(&createOpts.check, "check", true, "Open the configured store and notifier after writing")
}

func (o configCreateOptions) apply(cfg config.Config) config.Config {
	set := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	set(&cfg.Store.Driver, o.storeDriver)
	set(&cfg.Store.Path, o.storePath)
	set(&cfg.Store.DSN, o.storeDSN)
	set(&cfg.Notify.Driver, o.notify)
	set(&cfg.Notify.File, o.notifyFile)
	set(&cfg.Notify.Fallback, o.fallback)
	set(&cfg.User.ID, o.userID)
	set(&cfg.User.Name, o.userName)
	return cfg
}

func createConfig(ctx context.Context, out io.Writer, path string, opts configCreateOptions) error {
	content := config.RenderYAML(opts.apply(config.Defaults()))
	cfg, err := config.ValidateYAMLContent([]byte(content))
	if err != nil {
		return fmt.Errorf("refusing to write invalid config: %w", err)
	}

	written, err := writeConfigFile(path, content, opts.force)
	if err != nil {
		return err
	}
	if !written {
		fmt.Fprintf(out, "Config file already exists at: %s (use --force to replace it)\n", path)
		return nil
	}

	fmt.Fprintf(out, "New config file created at: %s\n", path)
	printConfig(out, cfg)
	if !opts.check {
		return nil
	}
	return checkConfig(ctx, out, cfg)
}
