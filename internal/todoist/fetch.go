package todoist

import (
	"context"
	"fmt"
	"strings"

	"github.com/steveyegge/tasksheet/internal/types"
)

// ProjectTasks pairs a project with its flat task list
type ProjectTasks struct {
	Project types.Project
	Tasks   []types.Task
}

// FetchAll fetches projects and then each project's tasks, one request at a
// time, preserving the API's project order. When only is non-empty, projects
// whose name is not listed (case-insensitive) are skipped. A project or task
// missing its identifier (or a task naming itself as parent) fails the fetch.
func (c *Client) FetchAll(ctx context.Context, only []string) ([]ProjectTasks, error) {
	projects, err := c.FetchProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching projects: %w", err)
	}

	keep := projectFilter(only)

	result := make([]ProjectTasks, 0, len(projects))
	for _, project := range projects {
		if err := project.Validate(); err != nil {
			return nil, fmt.Errorf("invalid project: %w", err)
		}
		if !keep(project.Name) {
			continue
		}

		tasks, err := c.FetchTasks(ctx, project.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching tasks for project %q: %w", project.Name, err)
		}
		for i := range tasks {
			if err := tasks[i].Validate(); err != nil {
				return nil, fmt.Errorf("invalid task %d in project %q: %w", i, project.Name, err)
			}
		}
		result = append(result, ProjectTasks{Project: project, Tasks: tasks})
	}

	return result, nil
}

func projectFilter(only []string) func(string) bool {
	if len(only) == 0 {
		return func(string) bool { return true }
	}
	names := make(map[string]bool, len(only))
	for _, name := range only {
		names[strings.ToLower(strings.TrimSpace(name))] = true
	}
	return func(name string) bool {
		return names[strings.ToLower(strings.TrimSpace(name))]
	}
}
