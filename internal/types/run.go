package types

import (
	"fmt"
	"time"
)

// RunStatus is the outcome of a sync run
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusDryRun    RunStatus = "dry_run"
)

// IsValid checks if the run status value is valid
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusSucceeded, RunStatusDryRun:
		return true
	}
	return false
}

// RunRecord summarises one fetch-flatten-merge cycle for the history ledger
type RunRecord struct {
	ID          string    `json:"id"`
	Status      RunStatus `json:"status"`
	OutputPath  string    `json:"output_path"`
	Projects    int       `json:"projects"`
	Tasks       int       `json:"tasks"`
	Orphans     int       `json:"orphans"`
	RowsFetched int       `json:"rows_fetched"`
	RowsAdded   int       `json:"rows_added"`
	Duplicates  int       `json:"duplicates"`
	TotalRows   int       `json:"total_rows"`
	Width       int       `json:"width"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Duration returns how long the run took
func (r *RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Validate checks the record before it is persisted
func (r *RunRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("invalid run status: %s", r.Status)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	if r.FinishedAt.Before(r.StartedAt) {
		return fmt.Errorf("finished_at (%s) is before started_at (%s)",
			r.FinishedAt.Format(time.RFC3339), r.StartedAt.Format(time.RFC3339))
	}
	if r.RowsAdded < 0 || r.Duplicates < 0 || r.TotalRows < 0 {
		return fmt.Errorf("row counts cannot be negative")
	}
	return nil
}
