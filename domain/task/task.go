// Package task provides task value types and pure validation functions.
// This package has NO dependencies on I/O or external packages.
package task

import (
	"time"
)

// Status describes a task's lifecycle state.
type Status string

// Task statuses.
const (
	StatusOpen      Status = "open"
	StatusCompleted Status = "completed"
)

// Priority describes how urgent a task is.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// MaxTitleLen bounds the title field. Longer titles are a validation failure,
// not a truncation.
const MaxTitleLen = 200

// MaxNotesLen bounds the free-form notes field.
const MaxNotesLen = 4000

// Task represents a single todo item (immutable value type).
type Task struct {
	ID          string
	Title       string
	Notes       string
	Status      Status
	Priority    Priority
	DueAt       *time.Time // nil = no due date
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time // nil = not completed
}

// CreateParams contains parameters for creating a new task.
type CreateParams struct {
	Title    string
	Notes    string
	Priority Priority
	DueAt    *time.Time
}

// New constructs a Task from create parameters. Callers must validate the
// params first; New applies defaults but performs no validation itself.
func New(id string, p CreateParams, now time.Time) Task {
	priority := p.Priority
	if priority == "" {
		priority = PriorityNormal
	}
	return Task{
		ID:        id,
		Title:     p.Title,
		Notes:     p.Notes,
		Status:    StatusOpen,
		Priority:  priority,
		DueAt:     p.DueAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Complete returns a copy of the task marked completed at the given time.
// Completing an already-completed task is idempotent.
func (t Task) Complete(now time.Time) Task {
	if t.Status == StatusCompleted {
		return t
	}
	done := now
	t.Status = StatusCompleted
	t.CompletedAt = &done
	t.UpdatedAt = now
	return t
}

// IsCompleted reports whether the task has been completed.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	return s == StatusOpen || s == StatusCompleted
}

// ValidPriority reports whether p is a known priority.
// The empty priority is valid and defaults to normal.
func ValidPriority(p Priority) bool {
	return p == "" || p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}
