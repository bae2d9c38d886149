package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/tasksheet/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the tasksheet config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Long: `Write a YAML config file holding the default settings.

The API token is not written; set TODOIST_API_TOKEN or add api_token to the
file yourself. An existing file is never overwritten.

Example:
  tasksheet config init                 # ./tasksheet.yaml
  tasksheet config init ~/.tasksheet.yaml`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := config.DefaultFileName
		if len(args) > 0 {
			path = args[0]
		}

		if err := config.SaveDefault(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		fmt.Printf("%s Wrote %s\n", green("✓"), cyan(path))
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration (token redacted)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(cfg.String())
		if err := cfg.Validate(); err != nil {
			yellow := color.New(color.FgYellow).SprintFunc()
			fmt.Printf("%s %v\n", yellow("⚠"), err)
		}
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
