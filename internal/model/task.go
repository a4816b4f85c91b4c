package model

import (
	"encoding/json"
	"strings"
	"time"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Normalize trims s and upper-cases it, so "todo" and "TODO" name the same status.
func (s TaskStatus) Normalize() TaskStatus {
	return TaskStatus(strings.ToUpper(strings.TrimSpace(string(s))))
}

// Toggled returns DONE for any open status and TODO for DONE.
func (s TaskStatus) Toggled() TaskStatus {
	if s == StatusDone {
		return StatusTodo
	}
	return StatusDone
}

// Task represents a to-do item owned by a user.
type Task struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"userId,string"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Status      *TaskStatus `json:"status"`
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}. Nil fields are left
// unchanged; a description sent as null is cleared.
type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description OptionalString `json:"description"`
	Status      *TaskStatus    `json:"status"`
}

// OptionalString tells an absent JSON field apart from an explicit null.
// Set is true whenever the field appeared; Value is nil for null.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status TaskStatus
	Search string
	Limit  int
	Offset int
}

// TaskQuery is the caller-facing listing request; page is 1-based.
type TaskQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}
