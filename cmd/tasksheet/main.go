package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steveyegge/tasksheet/internal/config"
)

var (
	configPath string
	verbose    bool
	noHistory  bool
)

var rootCmd = &cobra.Command{
	Use:   "tasksheet",
	Short: "Export Todoist task hierarchies into a spreadsheet",
	Long: `Fetch every Todoist project and its tasks, rebuild the parent/subtask
hierarchy, and merge one row per task into an .xlsx workbook.

Each row holds the project name followed by one column per nesting level;
a task's content sits in the column for its depth. Rows already present in
the workbook are kept as they are and never duplicated, so running the
export repeatedly is safe.

Run without a subcommand to perform a single sync.

Examples:
  # Sync all projects into todoist_data_dynamic_subtasks.xlsx
  TODOIST_API_TOKEN=... tasksheet

  # Preview what would be added without touching the file
  tasksheet sync --dry-run

  # Show the last runs
  tasksheet history --limit 5`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFileName+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record this run in the history database")
	rootCmd.Run = runSyncCommand
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging configures the standard logrus logger on stderr
func setupLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug || os.Getenv("TASKSHEET_DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// loadConfig reads the config file and environment, then applies the global flags
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if noHistory {
		cfg.HistoryEnabled = false
	}
	if verbose {
		cfg.Debug = true
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
