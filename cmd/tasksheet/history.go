package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steveyegge/tasksheet/internal/config"
	"github.com/steveyegge/tasksheet/internal/storage"
	"github.com/steveyegge/tasksheet/internal/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync runs",
	Long: `Show the runs recorded in the history database, newest first.

Examples:
  tasksheet history
  tasksheet history --limit 3`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := showHistory(ctx, cfg, limit, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 10, "Number of runs to show (0 = all)")
	rootCmd.AddCommand(historyCmd)
}

func showHistory(ctx context.Context, cfg config.Config, limit int, out io.Writer) error {
	dbPath, err := storage.DiscoverDatabase(cfg.HistoryPath)
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(out, "%s No runs recorded yet\n", yellow("⚠"))
		return nil
	}

	cyan := color.New(color.FgCyan).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(out, "\nRecent runs (%d):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  %s\n",
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			statusLabel(run.Status),
			cyan(run.OutputPath))
		fmt.Fprintf(out, "  Projects: %d, Tasks: %d, Orphans: %d\n", run.Projects, run.Tasks, run.Orphans)
		fmt.Fprintf(out, "  Rows: %d fetched, %d added, %d duplicate(s), %d total (%d columns)\n",
			run.RowsFetched, run.RowsAdded, run.Duplicates, run.TotalRows, run.Width)
		fmt.Fprintf(out, "  %s\n\n", gray(fmt.Sprintf("run %s took %s", run.ID, formatDuration(run.Duration()))))
	}
	return nil
}

func statusLabel(s types.RunStatus) string {
	switch s {
	case types.RunStatusSucceeded:
		return color.New(color.FgGreen).Sprint("✓ synced")
	case types.RunStatusDryRun:
		return color.New(color.FgYellow).Sprint("○ dry run")
	default:
		return string(s)
	}
}

// formatDuration renders run durations, which are usually sub-minute
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}
