/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"worktally/config"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "worktally",
	Short: "Log hours against work items and report on them.",
	Long: `
**********************************************
*                WORKTALLY                   *
**********************************************

Records hours per work item, user and day into a shared document store,
keeps an audit trail of every change, and reports on the collected hours
as tables, CSV or Excel workbooks.

Supported stores:
- sqlite (default, single file)
- postgres
- memory (tests and demos)
`,
	Example: `
  # Create configuration file
  worktally config create

  # Log 3 hours on work item 42 for today
  worktally log --item 42 --hours 3 --title "Fix login" --type Bug

  # Show one user's record including the audit trail
  worktally show --item 42 --user alice

  # Total hours of all users on a work item
  worktally total --item 42

  # Summary report for January
  worktally report --from 2024-01-01 --to 2024-01-31

  # Export rows to Excel
  worktally export --output ./hours.xlsx

  # Change the hour increment
  worktally settings set --hour-increment 0.25

  # Serve the JSON API
  worktally serve --port 8080
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.worktally.yaml, then ./.worktally.yaml)")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".worktally")
	}

	viper.SetEnvPrefix("WORKTALLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Defaults apply when no file is found.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found, using defaults. Create one with: worktally config create")
	}
}
