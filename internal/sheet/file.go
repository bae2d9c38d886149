package sheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/steveyegge/tasksheet/internal/flatten"
	"github.com/steveyegge/tasksheet/internal/types"
)

// PersistenceError reports a failure reading or writing the workbook
type PersistenceError struct {
	Op   string // "lock", "open", "read", "write", "rename"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Load reads a previously written workbook. The first row of the sheet is the
// header; every other non-blank row is data. A missing file yields an empty
// table, not an error. When sheetName is empty or absent the first sheet is read.
func Load(path, sheetName string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Table{}, nil
		}
		return nil, &PersistenceError{Op: "open", Path: path, Err: err}
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &PersistenceError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	name := resolveSheet(f.GetSheetList(), sheetName)
	if name == "" {
		return &Table{}, nil
	}

	grid, err := f.GetRows(name)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Path: path, Err: fmt.Errorf("sheet %q: %w", name, err)}
	}
	if len(grid) == 0 {
		return &Table{}, nil
	}

	header := grid[0]
	var rows []types.Row
	width := len(header)
	for _, cells := range grid[1:] {
		if isBlank(cells) {
			continue
		}
		rows = append(rows, types.Row(cells))
		if len(cells) > width {
			width = len(cells)
		}
	}

	if width < 1 {
		width = 1
	}
	return &Table{Header: Header(width), Rows: flatten.Pad(rows, width)}, nil
}

// Save writes the table as a fresh workbook with a bold header row. The data
// goes to a temporary file in the target directory which is then renamed over
// path, so an interrupted write leaves the previous file intact.
func Save(path, sheetName string, t *Table) error {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheetName != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheetName); err != nil {
			return &PersistenceError{Op: "write", Path: path, Err: err}
		}
	}

	width := t.Width()
	if width < 1 {
		width = 1
	}
	if err := writeRow(f, sheetName, 1, Header(width)); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := styleHeader(f, sheetName, width); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	for i, row := range flatten.Pad(t.Rows, width) {
		if err := writeRow(f, sheetName, i+2, row); err != nil {
			return &PersistenceError{Op: "write", Path: path, Err: err}
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".tasksheet-*.xlsx")
	if err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return &PersistenceError{Op: "write", Path: path, Err: err}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return &PersistenceError{Op: "rename", Path: path, Err: err}
	}
	committed = true
	return nil
}

func resolveSheet(sheets []string, want string) string {
	if len(sheets) == 0 {
		return ""
	}
	for _, s := range sheets {
		if s == want {
			return s
		}
	}
	return sheets[0]
}

func writeRow(f *excelize.File, sheetName string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func styleHeader(f *excelize.File, sheetName string, width int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheetName, "A1", last, style)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
