package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/steveyegge/tasksheet/internal/types"
)

func TestLoadMissingFile(t *testing.T) {
	table, err := Load(filepath.Join(t.TempDir(), "nope.xlsx"), DefaultSheetName)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Equal(t, 0, table.Width())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)

	in := NewTable([]types.Row{
		{"Home", "Clean"},
		{"Home", "", "Vacuum"},
	})
	require.NoError(t, Save(path, DefaultSheetName, in))

	out, err := Load(path, DefaultSheetName)
	require.NoError(t, err)
	assert.Equal(t, []string{"Project", "Task Level 1", "Task Level 2"}, out.Header)
	assert.Equal(t, []types.Row{
		{"Home", "Clean", ""},
		{"Home", "", "Vacuum"},
	}, out.Rows)

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveWritesHeaderFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Save(path, "Tasks", NewTable([]types.Row{{"Work", "Report"}})))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tasks"}, f.GetSheetList())
	rows, err := f.GetRows("Tasks")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Project", "Task Level 1"}, rows[0])
	assert.Equal(t, []string{"Work", "Report"}, rows[1])
}

func TestLoadFallsBackToFirstSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, Save(path, "Export", NewTable([]types.Row{{"Work", "Report"}})))

	table, err := Load(path, "Sheet1")
	require.NoError(t, err)
	assert.Equal(t, []types.Row{{"Work", "Report"}}, table.Rows)
}

// A workbook written by another tool may have ragged rows and blank lines
func TestLoadRaggedWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ragged.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Project", "Task Level 1"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Home", "Clean"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]interface{}{"Home", nil, "Vacuum"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, table.Width())
	assert.Equal(t, []types.Row{
		{"Home", "Clean", ""},
		{"Home", "", "Vacuum"},
	}, table.Rows)
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("definitely not a zip archive"), 0644))

	_, err := Load(path, DefaultSheetName)
	var persistErr *PersistenceError
	require.True(t, errors.As(err, &persistErr), "expected PersistenceError, got %v", err)
	assert.Equal(t, "open", persistErr.Op)
	assert.Equal(t, path, persistErr.Path)
}

func TestSaveIntoMissingDirectoryCreatesIt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "out.xlsx")
	require.NoError(t, Save(path, "", NewTable([]types.Row{{"Home", "Clean"}})))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveUnwritableTarget(t *testing.T) {
	dir := t.TempDir()
	// The target path is an existing directory, so the final rename fails
	target := filepath.Join(dir, "taken.xlsx")
	require.NoError(t, os.Mkdir(target, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(target, "keep"), []byte("x"), 0644))

	err := Save(target, DefaultSheetName, NewTable([]types.Row{{"Home", "Clean"}}))
	var persistErr *PersistenceError
	require.True(t, errors.As(err, &persistErr), "expected PersistenceError, got %v", err)
	assert.Equal(t, "rename", persistErr.Op)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file should be cleaned up")
}

func TestMergeFileScenarios(t *testing.T) {
	t.Run("rerun does not duplicate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		require.NoError(t, Save(path, DefaultSheetName, NewTable([]types.Row{{"Home", "Clean"}})))

		table, stats, err := MergeFile(path, DefaultSheetName, []types.Row{{"Home", "Clean"}})
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
		assert.Equal(t, 1, stats.Duplicates)

		reloaded, err := Load(path, DefaultSheetName)
		require.NoError(t, err)
		assert.Equal(t, []types.Row{{"Home", "Clean"}}, reloaded.Rows)
	})

	t.Run("deeper tree widens file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		require.NoError(t, Save(path, DefaultSheetName, NewTable([]types.Row{
			{"Home", "Clean"},
			{"Home", "", "Vacuum"},
		})))

		_, stats, err := MergeFile(path, DefaultSheetName, []types.Row{
			{"Home", "Clean", "", ""},
			{"Home", "", "Vacuum", ""},
			{"Home", "", "", "Under sofa"},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Added)

		reloaded, err := Load(path, DefaultSheetName)
		require.NoError(t, err)
		assert.Equal(t, []string{"Project", "Task Level 1", "Task Level 2", "Task Level 3"}, reloaded.Header)
		assert.Equal(t, []types.Row{
			{"Home", "Clean", "", ""},
			{"Home", "", "Vacuum", ""},
			{"Home", "", "", "Under sofa"},
		}, reloaded.Rows)
	})

	t.Run("rerun with control characters does not duplicate", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		rows := []types.Row{
			{"Home", "ctl\x0bchar"},
			{"Home", "nul\x00x"},
			{"Home", "  indented "},
			{"Home", "a\r\nb"},
			{"Home", "=SUM(A1)"},
			{"Home", "007"},
		}

		_, first, err := MergeFile(path, DefaultSheetName, rows)
		require.NoError(t, err)
		assert.Equal(t, len(rows), first.Added)

		for run := 2; run <= 3; run++ {
			table, stats, err := MergeFile(path, DefaultSheetName, rows)
			require.NoError(t, err)
			assert.Equal(t, 0, stats.Added, "run %d added rows", run)
			assert.Equal(t, len(rows), stats.Duplicates, "run %d", run)
			assert.Len(t, table.Rows, len(rows), "run %d", run)
		}

		reloaded, err := Load(path, DefaultSheetName)
		require.NoError(t, err)
		require.Len(t, reloaded.Rows, len(rows))
		assert.Equal(t, "ctl\uFFFDchar", reloaded.Rows[0][1])
	})

	t.Run("creates file on first run", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), DefaultFileName)
		table, stats, err := MergeFile(path, DefaultSheetName, []types.Row{{"Home", "Clean"}})
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Added)
		assert.Equal(t, []string{"Project", "Task Level 1"}, table.Header)
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})
}
