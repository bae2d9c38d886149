package sheet

import (
	"fmt"

	"github.com/steveyegge/tasksheet/internal/flatten"
	"github.com/steveyegge/tasksheet/internal/types"
)

// MergeStats describes what a merge did
type MergeStats struct {
	Existing   int // rows already in the table
	Incoming   int // rows offered by this run
	Added      int // incoming rows appended
	Duplicates int // incoming rows skipped because an identical row was present
	Width      int // column count after the merge
}

// String returns a human-readable summary
func (s MergeStats) String() string {
	return fmt.Sprintf("MergeStats{Existing: %d, Incoming: %d, Added: %d, Duplicates: %d, Width: %d}",
		s.Existing, s.Incoming, s.Added, s.Duplicates, s.Width)
}

// Merge appends newRows to existing, skipping any row identical to one
// already present. The width is the larger of the two inputs, and both sides
// are right-padded to it before comparing. Incoming cells are first reduced to
// what the workbook can store, so a rerun with unchanged data matches what the
// previous run saved. Existing rows are kept in order and never altered beyond
// padding. existing may be nil.
func Merge(existing *Table, newRows []types.Row) (*Table, MergeStats) {
	width := flatten.Width(newRows)
	if w := existing.Width(); w > width {
		width = w
	}
	if width < 1 {
		width = 1
	}

	var prior []types.Row
	if existing != nil {
		prior = existing.Rows
	}

	stats := MergeStats{
		Existing: len(prior),
		Incoming: len(newRows),
		Width:    width,
	}

	merged := make([]types.Row, 0, len(prior)+len(newRows))
	seen := make(map[string]bool, len(prior)+len(newRows))

	for _, row := range flatten.Pad(prior, width) {
		seen[rowKey(row)] = true
		merged = append(merged, row)
	}

	for _, row := range flatten.Pad(newRows, width) {
		row = storableRow(row)
		key := rowKey(row)
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true
		merged = append(merged, row.Clone())
		stats.Added++
	}

	return &Table{Header: Header(width), Rows: merged}, stats
}

// MergeFile loads the workbook at path (if any), merges newRows into it and
// writes the result back over path. The workbook lock is held throughout.
func MergeFile(path, sheetName string, newRows []types.Row) (*Table, MergeStats, error) {
	lock, err := AcquireLock(path)
	if err != nil {
		return nil, MergeStats{}, err
	}
	defer func() { _ = lock.Release() }()

	existing, err := Load(path, sheetName)
	if err != nil {
		return nil, MergeStats{}, err
	}

	merged, stats := Merge(existing, newRows)

	if err := Save(path, sheetName, merged); err != nil {
		return nil, stats, err
	}
	return merged, stats, nil
}
