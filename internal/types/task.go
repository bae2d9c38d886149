package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is a remote identifier. Todoist has served identifiers both as JSON
// numbers and as strings, so ID accepts either and compares as a string.
// The zero value means "no identifier" (e.g. a root task's parent).
type ID string

// IsZero reports whether the identifier is empty
func (id ID) IsZero() bool {
	return id == ""
}

// String implements fmt.Stringer
func (id ID) String() string {
	return string(id)
}

// UnmarshalJSON accepts a string, a number, or null
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// Project is a named container of tasks in the remote service
type Project struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Validate checks that the project can be exported
func (p *Project) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("project id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project %s has no name", p.ID)
	}
	return nil
}

// Task is a unit of work with text content and an optional parent task
type Task struct {
	ID        ID     `json:"id"`
	Content   string `json:"content"`
	ParentID  ID     `json:"parent_id"`
	ProjectID ID     `json:"project_id"`
}

// IsRoot reports whether the task sits at the top of a hierarchy
func (t *Task) IsRoot() bool {
	return t.ParentID.IsZero()
}

// Validate checks the fields the hierarchy builder relies on
func (t *Task) Validate() error {
	if t.ID.IsZero() {
		return fmt.Errorf("task id is required")
	}
	if t.ParentID == t.ID {
		return fmt.Errorf("task %s is its own parent", t.ID)
	}
	return nil
}

// TaskNode is a task together with its ordered subtasks
type TaskNode struct {
	Task
	Children []*TaskNode `json:"children,omitempty"`
}

// Row is one flattened record: project name followed by one cell per level.
// A task at depth d has its content at index d; indices 1..d-1 are blank.
type Row []string

// Clone returns a copy that does not share backing storage
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}
