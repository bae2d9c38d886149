package sheet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/steveyegge/tasksheet/internal/types"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		width int
		want  []string
	}{
		{width: 0, want: []string{"Project"}},
		{width: 1, want: []string{"Project"}},
		{width: 2, want: []string{"Project", "Task Level 1"}},
		{width: 4, want: []string{"Project", "Task Level 1", "Task Level 2", "Task Level 3"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Header(tt.width), "Header(%d)", tt.width)
	}
}

func TestMergeIntoEmpty(t *testing.T) {
	merged, stats := Merge(nil, []types.Row{
		{"Home", "Clean"},
		{"Home", "", "Vacuum"},
	})

	assert.Equal(t, []string{"Project", "Task Level 1", "Task Level 2"}, merged.Header)
	assert.Equal(t, []types.Row{
		{"Home", "Clean", ""},
		{"Home", "", "Vacuum"},
	}, merged.Rows)
	assert.Equal(t, MergeStats{Existing: 0, Incoming: 2, Added: 2, Duplicates: 0, Width: 3}, stats)
}

func TestMergeSkipsExistingRow(t *testing.T) {
	existing := &Table{
		Header: Header(2),
		Rows:   []types.Row{{"Home", "Clean"}},
	}

	merged, stats := Merge(existing, []types.Row{{"Home", "Clean"}})
	assert.Equal(t, []types.Row{{"Home", "Clean"}}, merged.Rows)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 0, stats.Added)
}

func TestMergeWidensExistingRows(t *testing.T) {
	existing := &Table{
		Header: Header(3),
		Rows: []types.Row{
			{"Home", "Clean", ""},
			{"Home", "", "Vacuum"},
		},
	}

	merged, stats := Merge(existing, []types.Row{
		{"Home", "Clean", "", ""},
		{"Home", "", "Vacuum", ""},
		{"Home", "", "", "Under sofa"},
	})

	assert.Equal(t, []string{"Project", "Task Level 1", "Task Level 2", "Task Level 3"}, merged.Header)
	assert.Equal(t, []types.Row{
		{"Home", "Clean", "", ""},
		{"Home", "", "Vacuum", ""},
		{"Home", "", "", "Under sofa"},
	}, merged.Rows)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 2, stats.Duplicates)
	assert.Equal(t, 4, stats.Width)
}

// A shallower run must not shrink the table or mis-compare against wider rows
func TestMergeKeepsWidthForShallowerBatch(t *testing.T) {
	existing := &Table{
		Header: Header(4),
		Rows: []types.Row{
			{"Home", "Clean", "", ""},
			{"Home", "", "", "Under sofa"},
		},
	}

	merged, stats := Merge(existing, []types.Row{{"Home", "Clean"}, {"Work", "Report"}})
	assert.Equal(t, 4, len(merged.Header))
	assert.Equal(t, []types.Row{
		{"Home", "Clean", "", ""},
		{"Home", "", "", "Under sofa"},
		{"Work", "Report", "", ""},
	}, merged.Rows)
	assert.Equal(t, 1, stats.Added)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestMergeIsIdempotent(t *testing.T) {
	batch := []types.Row{
		{"Home", "Clean", ""},
		{"Home", "", "Vacuum"},
		{"Work", "Report", ""},
	}

	once, _ := Merge(nil, batch)
	twice, stats := Merge(once, batch)

	assert.Equal(t, once.Header, twice.Header)
	assert.Equal(t, once.Rows, twice.Rows)
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 3, stats.Duplicates)
}

func TestMergeIsAppendOnly(t *testing.T) {
	existing := &Table{
		Header: Header(2),
		Rows: []types.Row{
			{"Old", "Gone from remote"},
			{"Home", "Clean"},
			// identical rows recorded by some earlier tool stay untouched
			{"Home", "Clean"},
		},
	}

	merged, _ := Merge(existing, []types.Row{{"Home", "", "Vacuum"}})
	require.Len(t, merged.Rows, 4)
	for i, before := range existing.Rows {
		after := merged.Rows[i]
		assert.Equal(t, before, after[:len(before)], "row %d changed", i)
		for _, cell := range after[len(before):] {
			assert.Empty(t, cell)
		}
	}
	assert.Equal(t, types.Row{"Home", "", "Vacuum"}, merged.Rows[3])
}

func TestMergeDeduplicatesWithinBatch(t *testing.T) {
	merged, stats := Merge(nil, []types.Row{
		{"Home", "Buy milk"},
		{"Home", "Buy milk"},
		{"Home", "Buy bread"},
	})
	assert.Equal(t, []types.Row{{"Home", "Buy milk"}, {"Home", "Buy bread"}}, merged.Rows)
	assert.Equal(t, 1, stats.Duplicates)
}

func TestMergeDoesNotAliasInput(t *testing.T) {
	batch := []types.Row{{"Home", "Clean"}}
	merged, _ := Merge(nil, batch)
	merged.Rows[0][1] = "changed"
	assert.Equal(t, "Clean", batch[0][1])
}

func TestMergeStoresWorkbookSafeText(t *testing.T) {
	merged, stats := Merge(nil, []types.Row{
		{"Home", "ctl\x0bchar"},
		{"Home", "nul\x00x"},
		{"Home", "tab\there\r\n"},
	})

	require.Equal(t, 3, stats.Added)
	assert.Equal(t, []types.Row{
		{"Home", "ctl\uFFFDchar"},
		{"Home", "nul\uFFFDx"},
		{"Home", "tab\there\r\n"},
	}, merged.Rows)

	again, stats := Merge(merged, []types.Row{{"Home", "ctl\x0bchar"}, {"Home", "nul\x00x"}})
	assert.Equal(t, 0, stats.Added)
	assert.Equal(t, 2, stats.Duplicates)
	assert.Len(t, again.Rows, 3)
}

func TestMergeKeyDoesNotConfuseCellBoundaries(t *testing.T) {
	merged, stats := Merge(nil, []types.Row{
		{"P", "a:", "b"},
		{"P", "a", ":b"},
		{"P", "1:a", ""},
		{"P", "1", ":a"},
	})
	assert.Equal(t, 4, stats.Added)
	assert.Equal(t, 0, stats.Duplicates)
	assert.Len(t, merged.Rows, 4)
}

func TestCellText(t *testing.T) {
	long := strings.Repeat("é", excelize.TotalCellChars+10)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Vacuum", "Vacuum"},
		{"allowed whitespace kept", "a\tb\r\nc", "a\tb\r\nc"},
		{"vertical tab replaced", "x\x0by", "x\uFFFDy"},
		{"nul replaced", "\x00", "\uFFFD"},
		{"unit separator replaced", "a\x1fb", "a\uFFFDb"},
		{"invalid utf8 replaced", "a\xffb", "a\uFFFDb"},
		{"noncharacter replaced", "a\uFFFEb", "a\uFFFDb"},
		{"astral kept", "🧹", "🧹"},
		{"over limit truncated", long, strings.Repeat("é", excelize.TotalCellChars)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cellText(tt.in); got != tt.want {
				t.Errorf("cellText(%q) = %q, want %q", truncate(tt.in), truncate(got), truncate(tt.want))
			}
		})
	}
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
