package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktally/config"
)

var configShowCheck bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Secrets
(store.dsn, notify.redis_password) are masked. With --check the store and
notifier are opened and the number of stored time records is printed.`,
	Example: `
  # Show active configuration
  worktally config show

  # Show it and check the store connection
  worktally config show --check
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		source := viper.ConfigFileUsed()
		if source == "" {
			source = "(defaults, no file)"
		}
		fmt.Println("Config file loaded from:", source)
		printConfig(os.Stdout, cfg)
		if !configShowCheck {
			return nil
		}
		return checkConfig(cmd.Context(), os.Stdout, cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)

	configShowCmd.Flags().BoolVar(&configShowCheck, "check", false, "Open the configured store and notifier")
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "%s: %s\n", config.KeyStoreDriver, cfg.Store.Driver)
	fmt.Fprintf(out, "%s: %s\n", config.KeyStorePath, cfg.Store.Path)
	fmt.Fprintf(out, "%s: %s\n", config.KeyStoreDSN, maskSecret(cfg.Store.DSN))
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogLevel, cfg.Log.Level)
	fmt.Fprintf(out, "%s: %s\n", config.KeyLogFormat, cfg.Log.Format)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyDriver, cfg.Notify.Driver)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyFile, cfg.Notify.File)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyRedisAddr, cfg.Notify.RedisAddr)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyRedisChannel, cfg.Notify.RedisChannel)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyRedisPass, maskSecret(cfg.Notify.RedisPass))
	fmt.Fprintf(out, "%s: %d\n", config.KeyNotifyRedisDB, cfg.Notify.RedisDB)
	fmt.Fprintf(out, "%s: %s\n", config.KeyNotifyFallback, cfg.Notify.Fallback)
	fmt.Fprintf(out, "%s: %s\n", config.KeyUserID, cfg.User.ID)
	fmt.Fprintf(out, "%s: %s\n", config.KeyUserName, cfg.User.Name)
	fmt.Fprintf(out, "%s: %d\n", config.KeyReportTopN, cfg.Report.TopN)
}

func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
