package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus is the closed set of task states. Any status may move to any other.
type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// TaskStatuses lists every status in display order.
var TaskStatuses = []TaskStatus{StatusToDo, StatusInProgress, StatusDone}

// Valid reports whether s is one of TaskStatuses.
func (s TaskStatus) Valid() bool {
	for _, v := range TaskStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Next returns the status after s in display order, wrapping around.
// Unknown statuses restart at To Do.
func (s TaskStatus) Next() TaskStatus {
	for i, v := range TaskStatuses {
		if s == v {
			return TaskStatuses[(i+1)%len(TaskStatuses)]
		}
	}
	return StatusToDo
}

// ParseTaskStatus maps user input ("todo", "in-progress", "Done", ...) to a status.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "", "_", "", " ", "").Replace(norm)
	switch norm {
	case "todo":
		return StatusToDo, true
	case "inprogress", "doing":
		return StatusInProgress, true
	case "done":
		return StatusDone, true
	}
	return "", false
}

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	ProjectID   string     `json:"projectId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// UnmarshalJSON accepts "_id" for the id and "project" for the project id.
func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var raw struct {
		plain
		MongoID string `json:"_id"`
		Project string `json:"project"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Task(raw.plain)
	if t.ID == "" {
		t.ID = raw.MongoID
	}
	if t.ProjectID == "" {
		t.ProjectID = raw.Project
	}
	return nil
}
