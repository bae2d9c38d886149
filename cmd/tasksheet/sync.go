package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steveyegge/tasksheet/internal/config"
	"github.com/steveyegge/tasksheet/internal/pipeline"
	"github.com/steveyegge/tasksheet/internal/sheet"
	"github.com/steveyegge/tasksheet/internal/storage"
	"github.com/steveyegge/tasksheet/internal/todoist"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch tasks and merge them into the spreadsheet",
	Long: `Fetch projects and tasks from Todoist, flatten each project's task tree
into rows, and merge the rows into the workbook.

The workbook is created when missing. Existing rows are never changed or
removed, including duplicate rows a workbook written by another tool may
already hold; only new rows identical to one already present are skipped.
When the hierarchy is deeper than before, every row is padded to the new width.

Examples:
  # Sync everything using tasksheet.yaml and TODOIST_API_TOKEN
  tasksheet sync

  # Only the Home and Work projects, into a different file
  tasksheet sync --project Home --project Work --output ~/tasks.xlsx

  # Show what would change without writing
  tasksheet sync --dry-run`,
	Run: runSyncCommand,
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "Merge in memory and report, but do not write the spreadsheet")
	syncCmd.Flags().StringP("output", "o", "", "Spreadsheet to update (overrides config)")
	syncCmd.Flags().StringSliceP("project", "p", nil, "Only export these projects (repeatable, case-insensitive)")
	rootCmd.AddCommand(syncCmd)
}

// runSyncCommand backs both "tasksheet" and "tasksheet sync". The root command
// has none of the sync flags, so lookups fall back to zero values.
func runSyncCommand(cmd *cobra.Command, args []string) {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	output, _ := cmd.Flags().GetString("output")
	projects, _ := cmd.Flags().GetStringSlice("project")

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if output != "" {
		cfg.OutputPath = output
	}
	if len(projects) > 0 {
		cfg.Projects = projects
	}

	ctx, cancel := signalContext()
	defer cancel()

	if _, err := syncOnce(ctx, cfg, dryRun, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := errorHint(err); hint != "" {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

// errorHint suggests a fix for failures the user can resolve themselves
func errorHint(err error) string {
	var remoteErr *todoist.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.Unauthorized() {
		return "Todoist rejected the API token; check TODOIST_API_TOKEN or api_token in " + config.DefaultFileName
	}
	if errors.Is(err, sheet.ErrLocked) {
		return "another tasksheet run is writing this spreadsheet; wait for it to finish"
	}
	return ""
}

// syncOnce validates cfg, runs the pipeline, records the run and prints a summary to out
func syncOnce(ctx context.Context, cfg config.Config, dryRun bool, out io.Writer) (*pipeline.Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log.WithField("config", cfg.String()).Debug("Loaded configuration")

	client, err := todoist.NewClient(todoist.Options{
		BaseURL:   cfg.BaseURL,
		Token:     cfg.APIToken,
		Timeout:   cfg.RequestTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Todoist client: %w", err)
	}

	runner := pipeline.NewRunner(client, log.StandardLogger())
	res, err := runner.Run(ctx, pipeline.Options{
		OutputPath: cfg.OutputPath,
		SheetName:  cfg.SheetName,
		Projects:   cfg.Projects,
		DryRun:     dryRun,
	})
	if err != nil {
		return nil, err
	}

	// The spreadsheet is already written; a ledger failure only costs history
	if cfg.HistoryEnabled {
		if err := recordRun(ctx, cfg, res); err != nil {
			log.WithField("run_id", res.RunID).WithError(err).Warn("Failed to record run history")
		}
	}

	printSummary(out, res)
	return res, nil
}

func recordRun(ctx context.Context, cfg config.Config, res *pipeline.Result) error {
	dbPath, err := storage.DiscoverDatabase(cfg.HistoryPath)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return store.RecordRun(ctx, res.Record())
}

func printSummary(out io.Writer, res *pipeline.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if res.DryRun {
		fmt.Fprintf(out, "%s Dry run: spreadsheet '%s' would gain %d new row(s), %d duplicate(s) skipped\n",
			yellow("⚠"), cyan(res.OutputPath), res.Stats.Added, res.Stats.Duplicates)
	} else {
		fmt.Fprintf(out, "%s Spreadsheet '%s' updated: %d new row(s), %d duplicate(s) skipped\n",
			green("✓"), cyan(res.OutputPath), res.Stats.Added, res.Stats.Duplicates)
	}

	if res.Orphans > 0 {
		fmt.Fprintf(out, "%s %d task(s) skipped because their parent was not found\n",
			yellow("⚠"), res.Orphans)
	}
}
