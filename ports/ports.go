// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/taskgate/taskgate/domain/task"
)

// TasksContract is the registry key for the tasks capability.
const TasksContract = "tasks"

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Tasks Capability Contract
// -----------------------------------------------------------------------------

// TaskCapability is the operation set the tasks module exposes to other
// modules and to the inbound HTTP layer. It is transport-independent: the
// same interface is satisfied by the in-process, HTTP, and message-bus
// strategies, and callers never know which one serves them. Every error
// returned through this interface is a *capability.Error.
type TaskCapability interface {
	// CreateTask creates a new task.
	CreateTask(ctx context.Context, req CreateTaskRequest) (TaskResponse, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, req GetTaskRequest) (TaskResponse, error)

	// ListTasks returns tasks, optionally filtered by status.
	ListTasks(ctx context.Context, req ListTasksRequest) (ListTasksResponse, error)

	// CompleteTask marks a task completed. Idempotent.
	CompleteTask(ctx context.Context, req CompleteTaskRequest) (TaskResponse, error)

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, req DeleteTaskRequest) (DeleteTaskResponse, error)
}

// The request/response records below are plain value types with structural
// equality. Their JSON form is the wire schema for the HTTP and message-bus
// strategies, mirroring the contract one-for-one.

// CreateTaskRequest asks for a new task.
type CreateTaskRequest struct {
	Title    string        `json:"title"`
	Notes    string        `json:"notes,omitempty"`
	Priority task.Priority `json:"priority,omitempty"`
	DueAt    *time.Time    `json:"due_at,omitempty"`
}

// GetTaskRequest retrieves one task.
type GetTaskRequest struct {
	ID string `json:"id"`
}

// ListTasksRequest filters the task list. Empty status means all.
type ListTasksRequest struct {
	Status task.Status `json:"status,omitempty"`
	Limit  int         `json:"limit,omitempty"`
	Offset int         `json:"offset,omitempty"`
}

// CompleteTaskRequest marks a task completed.
type CompleteTaskRequest struct {
	ID string `json:"id"`
}

// DeleteTaskRequest removes a task.
type DeleteTaskRequest struct {
	ID string `json:"id"`
}

// TaskView is the task representation that crosses module boundaries.
type TaskView struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Notes       string        `json:"notes,omitempty"`
	Status      task.Status   `json:"status"`
	Priority    task.Priority `json:"priority"`
	DueAt       *time.Time    `json:"due_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}

// TaskResponse carries a single task. Accepted is set instead of Task when a
// fire-and-forget transport acknowledged the request without executing it.
type TaskResponse struct {
	Task     TaskView `json:"task"`
	Accepted bool     `json:"accepted,omitempty"`
}

// ListTasksResponse carries a page of tasks.
type ListTasksResponse struct {
	Tasks []TaskView `json:"tasks"`
	Total int        `json:"total"`
}

// DeleteTaskResponse acknowledges a deletion.
type DeleteTaskResponse struct {
	Deleted  bool `json:"deleted"`
	Accepted bool `json:"accepted,omitempty"`
}

// NewTaskView converts a domain task to its boundary representation.
func NewTaskView(t task.Task) TaskView {
	return TaskView{
		ID:          t.ID,
		Title:       t.Title,
		Notes:       t.Notes,
		Status:      t.Status,
		Priority:    t.Priority,
		DueAt:       t.DueAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ListOptions filters and pages store reads.
type ListOptions struct {
	Status task.Status // empty = all
	Limit  int
	Offset int
}

// TaskStore persists tasks.
type TaskStore interface {
	// Get retrieves a task by ID. Returns ErrTaskNotFound when absent.
	Get(ctx context.Context, id string) (task.Task, error)

	// Create stores a new task.
	Create(ctx context.Context, t task.Task) error

	// Update modifies an existing task. Returns ErrTaskNotFound when absent.
	Update(ctx context.Context, t task.Task) error

	// Delete removes a task. Returns ErrTaskNotFound when absent.
	Delete(ctx context.Context, id string) error

	// List returns tasks matching the options plus the unpaged total.
	List(ctx context.Context, opts ListOptions) ([]task.Task, int, error)

	// Ping verifies the store is reachable (health probe).
	Ping(ctx context.Context) error
}
