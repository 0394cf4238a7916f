package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus enumerates the lifecycle states a task moves through.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusDone       TaskStatus = "done"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusOpen, TaskStatusInProgress, TaskStatusBlocked, TaskStatusDone:
		return true
	default:
		return false
	}
}

// Task is a unit of work, optionally attached to a project and an assignee.
// Both references are nullable; sorting on related fields must keep rows
// with missing relations visible, which is why related sorts carry NULLS
// directives.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  *uuid.UUID `json:"project_id,omitempty"`
	AssigneeID *uuid.UUID `json:"assignee_id,omitempty"`
	Name       string     `json:"name"`
	Status     TaskStatus `json:"status"`
	Priority   int        `json:"priority"`
	DueDate    *time.Time `json:"due_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// NewTask creates a task with a fresh identity and timestamps.
func NewTask(name string, status TaskStatus, priority int) Task {
	now := time.Now()
	return Task{
		ID:        uuid.New(),
		Name:      name,
		Status:    status,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
