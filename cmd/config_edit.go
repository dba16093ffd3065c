package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktally/config"
)

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor and check it.",
	Long: `Open the active worktally config file in your editor.

The editor is $VISUAL, then $EDITOR, then vi. A missing file is created from
the defaults first. After the editor exits the file is validated and the
configured store and notifier are opened once.`,
	Example: `
  # Edit active config
  worktally config edit

  # Edit with VS Code
  VISUAL="code --wait" worktally config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}

		created, err := writeConfigFile(path, config.ExampleYAML(), false)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", path)
		}

		editor := editorCommand(os.Getenv, path)
		editor.Stdin = os.Stdin
		editor.Stdout = os.Stdout
		editor.Stderr = os.Stderr
		if err := editor.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		cfg, err := loadConfigFile(path)
		if err != nil {
			return err
		}
		fmt.Printf("Configuration saved and validated: %s\n", path)
		return checkConfig(cmd.Context(), os.Stdout, cfg)
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}

// editorCommand builds the command that opens path, honouring editor
// arguments such as "code --wait".
func editorCommand(getenv func(string) string, path string) *exec.Cmd {
	value := "vi"
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			value = v
			break
		}
	}
	fields := strings.Fields(value)
	return exec.Command(fields[0], append(fields[1:], path)...)
}

func loadConfigFile(path string) (*config.Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config failed: %w", err)
	}
	cfg, err := config.ValidateYAMLContent(content)
	if err != nil {
		return nil, fmt.Errorf("config validation failed in %s: %w", path, err)
	}
	return cfg, nil
}
