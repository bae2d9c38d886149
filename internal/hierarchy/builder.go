// Package hierarchy rebuilds task trees from the flat task list the API returns.
//
// Trees are built iteratively: every task gets a slot in an arena, children
// are indexed by parent identifier in input order, and an explicit work stack
// replaces recursion so that deep or malformed parent chains cannot exhaust
// the goroutine stack.
package hierarchy

import (
	"fmt"

	"github.com/steveyegge/tasksheet/internal/types"
)

// CycleError is returned when a walk reaches an identifier it has already
// visited. With one parent per task this only happens when the remote data
// repeats an identifier.
type CycleError struct {
	ID types.ID
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("task %s reached twice while building hierarchy", e.ID)
}

// Forest is the result of rebuilding one project's task list
type Forest struct {
	// Roots are the tasks without a parent, in input order
	Roots []*types.TaskNode

	// Orphans are tasks not reachable from any root: their parent is missing
	// from the list, or they sit on a parent cycle
	Orphans []types.Task
}

// Len returns the number of tasks placed in the forest
func (f *Forest) Len() int {
	n := 0
	stack := append([]*types.TaskNode(nil), f.Roots...)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n++
		stack = append(stack, node.Children...)
	}
	return n
}

// MaxDepth returns the deepest level in the forest (root = 1), or 0 if empty
func (f *Forest) MaxDepth() int {
	type frame struct {
		node  *types.TaskNode
		depth int
	}

	max := 0
	stack := make([]frame, 0, len(f.Roots))
	for _, root := range f.Roots {
		stack = append(stack, frame{node: root, depth: 1})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.depth > max {
			max = top.depth
		}
		for _, child := range top.node.Children {
			stack = append(stack, frame{node: child, depth: top.depth + 1})
		}
	}
	return max
}

// Build reconstructs the parent/child trees of one project's tasks.
// Siblings keep their relative order from the input list.
func Build(tasks []types.Task) (*Forest, error) {
	// Arena: nodes[i] belongs to tasks[i]
	nodes := make([]types.TaskNode, len(tasks))
	children := make(map[types.ID][]int, len(tasks))
	var roots []int

	for i := range tasks {
		nodes[i].Task = tasks[i]
		if tasks[i].IsRoot() {
			roots = append(roots, i)
			continue
		}
		children[tasks[i].ParentID] = append(children[tasks[i].ParentID], i)
	}

	seen := make(map[types.ID]bool, len(tasks))
	reached := make([]bool, len(tasks))

	stack := append([]int(nil), roots...)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		id := tasks[i].ID
		if seen[id] {
			return nil, &CycleError{ID: id}
		}
		seen[id] = true
		reached[i] = true

		kids := children[id]
		if len(kids) == 0 {
			continue
		}
		nodes[i].Children = make([]*types.TaskNode, len(kids))
		for k, c := range kids {
			nodes[i].Children[k] = &nodes[c]
		}
		stack = append(stack, kids...)
	}

	forest := &Forest{Roots: make([]*types.TaskNode, len(roots))}
	for k, r := range roots {
		forest.Roots[k] = &nodes[r]
	}
	for i := range tasks {
		if !reached[i] {
			forest.Orphans = append(forest.Orphans, tasks[i])
		}
	}

	return forest, nil
}
