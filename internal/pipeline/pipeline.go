// Package pipeline runs one fetch → rebuild → flatten → merge cycle.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/steveyegge/tasksheet/internal/flatten"
	"github.com/steveyegge/tasksheet/internal/hierarchy"
	"github.com/steveyegge/tasksheet/internal/sheet"
	"github.com/steveyegge/tasksheet/internal/todoist"
	"github.com/steveyegge/tasksheet/internal/types"
)

// Fetcher supplies projects with their flat task lists
type Fetcher interface {
	FetchAll(ctx context.Context, only []string) ([]todoist.ProjectTasks, error)
}

// Options controls a single run
type Options struct {
	OutputPath string
	SheetName  string
	Projects   []string // empty = every project
	DryRun     bool     // flatten and merge in memory but leave the file alone
}

// Result summarises a run
type Result struct {
	RunID      string
	Projects   int
	Tasks      int
	Orphans    int
	Rows       []types.Row // this run's padded rows
	Stats      sheet.MergeStats
	Table      *sheet.Table // merged table as written (or as it would be on a dry run)
	DryRun     bool
	OutputPath string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Record converts the result into a history ledger entry
func (r *Result) Record() *types.RunRecord {
	status := types.RunStatusSucceeded
	if r.DryRun {
		status = types.RunStatusDryRun
	}
	return &types.RunRecord{
		ID:          r.RunID,
		Status:      status,
		OutputPath:  r.OutputPath,
		Projects:    r.Projects,
		Tasks:       r.Tasks,
		Orphans:     r.Orphans,
		RowsFetched: len(r.Rows),
		RowsAdded:   r.Stats.Added,
		Duplicates:  r.Stats.Duplicates,
		TotalRows:   len(r.Table.Rows),
		Width:       r.Stats.Width,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
	}
}

// Runner wires the pipeline stages together
type Runner struct {
	Fetcher Fetcher
	Log     logrus.FieldLogger
	Now     func() time.Time
}

// NewRunner creates a runner that logs through log
func NewRunner(fetcher Fetcher, log logrus.FieldLogger) *Runner {
	return &Runner{Fetcher: fetcher, Log: log, Now: time.Now}
}

// Run performs one full cycle. Remote failures surface as *todoist.RemoteError
// and file failures as *sheet.PersistenceError, both reachable with errors.As.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.OutputPath == "" {
		opts.OutputPath = sheet.DefaultFileName
	}
	if opts.SheetName == "" {
		opts.SheetName = sheet.DefaultSheetName
	}

	res := &Result{
		RunID:      uuid.New().String(),
		DryRun:     opts.DryRun,
		OutputPath: opts.OutputPath,
		StartedAt:  r.now(),
	}
	log := r.logger().WithField("run_id", res.RunID)

	log.WithField("output", opts.OutputPath).Debug("Fetching projects and tasks")
	fetched, err := r.Fetcher.FetchAll(ctx, opts.Projects)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	res.Projects = len(fetched)

	trees := make([]flatten.ProjectTree, 0, len(fetched))
	for _, pt := range fetched {
		plog := log.WithFields(logrus.Fields{"project": pt.Project.Name, "tasks": len(pt.Tasks)})

		forest, err := hierarchy.Build(pt.Tasks)
		if err != nil {
			return nil, fmt.Errorf("build hierarchy for project %q: %w", pt.Project.Name, err)
		}
		if len(forest.Orphans) > 0 {
			plog.WithField("orphans", len(forest.Orphans)).
				Warn("Skipping tasks whose parent is not in the project")
		}
		plog.WithFields(logrus.Fields{
			"placed": forest.Len(),
			"depth":  forest.MaxDepth(),
		}).Debug("Rebuilt task hierarchy")

		res.Tasks += len(pt.Tasks)
		res.Orphans += len(forest.Orphans)
		trees = append(trees, flatten.ProjectTree{Name: pt.Project.Name, Roots: forest.Roots})
	}

	res.Rows = flatten.Batch(trees)
	log.WithFields(logrus.Fields{
		"projects": res.Projects,
		"tasks":    res.Tasks,
		"rows":     len(res.Rows),
	}).Info("Flattened task hierarchies")

	if opts.DryRun {
		existing, err := sheet.Load(opts.OutputPath, opts.SheetName)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		res.Table, res.Stats = sheet.Merge(existing, res.Rows)
	} else {
		res.Table, res.Stats, err = sheet.MergeFile(opts.OutputPath, opts.SheetName, res.Rows)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}

	res.FinishedAt = r.now()
	log.WithFields(logrus.Fields{
		"added":      res.Stats.Added,
		"duplicates": res.Stats.Duplicates,
		"total":      len(res.Table.Rows),
		"width":      res.Stats.Width,
		"dry_run":    opts.DryRun,
		"elapsed":    res.FinishedAt.Sub(res.StartedAt).String(),
	}).Info("Merged rows into spreadsheet")

	return res, nil
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}
