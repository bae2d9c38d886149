// Package sheet persists flattened task rows to an .xlsx workbook and merges
// new rows into what earlier runs recorded.
package sheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/steveyegge/tasksheet/internal/flatten"
	"github.com/steveyegge/tasksheet/internal/types"
)

const (
	// DefaultFileName is where rows are written when no output path is configured
	DefaultFileName = "todoist_data_dynamic_subtasks.xlsx"

	// DefaultSheetName matches the sheet a freshly created workbook starts with
	DefaultSheetName = "Sheet1"

	projectColumn = "Project"
	levelColumn   = "Task Level %d"
)

// Header returns the column titles for a table width columns wide:
// "Project" followed by "Task Level 1" .. "Task Level width-1"
func Header(width int) []string {
	if width < 1 {
		width = 1
	}
	header := make([]string, width)
	header[0] = projectColumn
	for i := 1; i < width; i++ {
		header[i] = fmt.Sprintf(levelColumn, i)
	}
	return header
}

// Table is a header plus rows that all share the header's width
type Table struct {
	Header []string
	Rows   []types.Row
}

// NewTable builds a rectangular table from rows, padding them to the widest
func NewTable(rows []types.Row) *Table {
	width := flatten.Width(rows)
	if width < 1 {
		width = 1
	}
	return &Table{Header: Header(width), Rows: flatten.Pad(rows, width)}
}

// Width returns the number of columns
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	w := len(t.Header)
	if rw := flatten.Width(t.Rows); rw > w {
		w = rw
	}
	return w
}

// rowKey identifies a row by every cell. Callers pad rows to a common width
// first so trailing blanks compare equal. Each cell is length-prefixed, so no
// cell content can shift a boundary.
func rowKey(r types.Row) string {
	var b strings.Builder
	for _, c := range r {
		b.WriteString(strconv.Itoa(len(c)))
		b.WriteByte(':')
		b.WriteString(c)
	}
	return b.String()
}
