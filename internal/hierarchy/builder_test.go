package hierarchy

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/tasksheet/internal/types"
)

func task(id, parent, content string) types.Task {
	return types.Task{ID: types.ID(id), ParentID: types.ID(parent), Content: content}
}

// contents returns the content of each node in a slice
func contents(nodes []*types.TaskNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Content
	}
	return out
}

func TestBuildSimpleTree(t *testing.T) {
	forest, err := Build([]types.Task{
		task("1", "", "Clean"),
		task("2", "1", "Vacuum"),
	})
	require.NoError(t, err)
	require.Len(t, forest.Roots, 1)

	root := forest.Roots[0]
	assert.Equal(t, "Clean", root.Content)
	require.Len(t, root.Children, 1)
	assert.Equal(t, "Vacuum", root.Children[0].Content)
	assert.Empty(t, root.Children[0].Children)
	assert.Empty(t, forest.Orphans)
	assert.Equal(t, 2, forest.MaxDepth())
	assert.Equal(t, 2, forest.Len())
}

func TestBuildPreservesSiblingOrder(t *testing.T) {
	// Children listed before their parent and interleaved with other subtrees
	forest, err := Build([]types.Task{
		task("c2", "b", "second child of b"),
		task("a", "", "A"),
		task("a1", "a", "first child of a"),
		task("b", "", "B"),
		task("c1", "b", "third child of b"),
		task("a2", "a", "second child of a"),
		task("c0", "b", "fourth child of b"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, contents(forest.Roots))
	assert.Equal(t, []string{"first child of a", "second child of a"}, contents(forest.Roots[0].Children))
	assert.Equal(t,
		[]string{"second child of b", "third child of b", "fourth child of b"},
		contents(forest.Roots[1].Children))
}

func TestBuildDeepChainDoesNotRecurse(t *testing.T) {
	const depth = 100000
	tasks := make([]types.Task, depth)
	tasks[0] = task("0", "", "level 1")
	for i := 1; i < depth; i++ {
		tasks[i] = task(fmt.Sprint(i), fmt.Sprint(i-1), fmt.Sprintf("level %d", i+1))
	}

	forest, err := Build(tasks)
	require.NoError(t, err)
	assert.Equal(t, depth, forest.MaxDepth())
	assert.Equal(t, depth, forest.Len())
}

func TestBuildOrphans(t *testing.T) {
	forest, err := Build([]types.Task{
		task("1", "", "root"),
		task("2", "missing", "orphan"),
		task("3", "2", "child of orphan"),
		// x and y are each other's parent
		task("x", "y", "cycle x"),
		task("y", "x", "cycle y"),
	})
	require.NoError(t, err)
	require.Len(t, forest.Roots, 1)

	var orphanIDs []types.ID
	for _, o := range forest.Orphans {
		orphanIDs = append(orphanIDs, o.ID)
	}
	assert.Equal(t, []types.ID{"2", "3", "x", "y"}, orphanIDs)
	assert.Equal(t, 1, forest.Len())
}

func TestBuildDuplicateIdentifier(t *testing.T) {
	_, err := Build([]types.Task{
		task("1", "", "first"),
		task("1", "", "again"),
	})

	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr), "expected CycleError, got %v", err)
	assert.Equal(t, types.ID("1"), cycleErr.ID)
}

func TestBuildEmpty(t *testing.T) {
	forest, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, forest.Roots)
	assert.Empty(t, forest.Orphans)
	assert.Equal(t, 0, forest.MaxDepth())
}
