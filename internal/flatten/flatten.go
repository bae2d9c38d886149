// Package flatten turns task trees into level-indexed spreadsheet rows.
package flatten

import (
	"github.com/steveyegge/tasksheet/internal/types"
)

// ProjectTree is one project's name and its root tasks
type ProjectTree struct {
	Name  string
	Roots []*types.TaskNode
}

// Project emits one row per task in depth-first pre-order. A task at depth d
// (roots are depth 1) yields a row of length d+1: the project name, d-1 blank
// cells, then the task content. A parent's row always precedes its subtree and
// siblings keep their order.
func Project(name string, roots []*types.TaskNode) []types.Row {
	type frame struct {
		node  *types.TaskNode
		depth int
	}

	var rows []types.Row
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: roots[i], depth: 1})
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		row := make(types.Row, top.depth+1)
		row[0] = name
		row[top.depth] = top.node.Content
		rows = append(rows, row)

		// Push in reverse so the first child is popped next
		kids := top.node.Children
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: kids[i], depth: top.depth + 1})
		}
	}

	return rows
}

// Batch flattens every project in order and pads the result to the widest row
func Batch(trees []ProjectTree) []types.Row {
	var rows []types.Row
	for _, tree := range trees {
		rows = append(rows, Project(tree.Name, tree.Roots)...)
	}
	return Pad(rows, Width(rows))
}

// Width returns the length of the longest row
func Width(rows []types.Row) int {
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Pad right-pads each row with blank cells up to width. Rows already at least
// that wide are returned unchanged; cells are never dropped.
func Pad(rows []types.Row, width int) []types.Row {
	out := make([]types.Row, len(rows))
	for i, r := range rows {
		if len(r) >= width {
			out[i] = r
			continue
		}
		padded := make(types.Row, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}
