// Package inprocess provides the in-process dispatch strategy: capability
// calls go straight to the module's own service handlers, within the same
// process. Business and validation failures come from the handlers; this
// layer adds nothing but the contract shape.
package inprocess

import (
	"context"

	"github.com/taskgate/taskgate/app"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/domain/task"
	"github.com/taskgate/taskgate/ports"
)

// Tasks is the in-process strategy for the tasks capability.
type Tasks struct {
	svc *app.TaskService
}

// NewTasks creates the in-process tasks strategy.
func NewTasks(svc *app.TaskService) *Tasks {
	return &Tasks{svc: svc}
}

// CreateTask creates a new task.
func (t *Tasks) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (ports.TaskResponse, error) {
	if t.svc == nil {
		return ports.TaskResponse{}, capability.Unexpected("tasks handler not registered", nil)
	}
	created, err := t.svc.Create(ctx, task.CreateParams{
		Title:    req.Title,
		Notes:    req.Notes,
		Priority: req.Priority,
		DueAt:    req.DueAt,
	})
	if err != nil {
		return ports.TaskResponse{}, capability.Classify(err)
	}
	return ports.TaskResponse{Task: ports.NewTaskView(created)}, nil
}

// GetTask retrieves a task by ID.
func (t *Tasks) GetTask(ctx context.Context, req ports.GetTaskRequest) (ports.TaskResponse, error) {
	if t.svc == nil {
		return ports.TaskResponse{}, capability.Unexpected("tasks handler not registered", nil)
	}
	got, err := t.svc.Get(ctx, req.ID)
	if err != nil {
		return ports.TaskResponse{}, capability.Classify(err)
	}
	return ports.TaskResponse{Task: ports.NewTaskView(got)}, nil
}

// ListTasks returns tasks matching the request.
func (t *Tasks) ListTasks(ctx context.Context, req ports.ListTasksRequest) (ports.ListTasksResponse, error) {
	if t.svc == nil {
		return ports.ListTasksResponse{}, capability.Unexpected("tasks handler not registered", nil)
	}
	tasks, total, err := t.svc.List(ctx, ports.ListOptions{
		Status: req.Status,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
	if err != nil {
		return ports.ListTasksResponse{}, capability.Classify(err)
	}
	views := make([]ports.TaskView, len(tasks))
	for i, tk := range tasks {
		views[i] = ports.NewTaskView(tk)
	}
	return ports.ListTasksResponse{Tasks: views, Total: total}, nil
}

// CompleteTask marks a task completed.
func (t *Tasks) CompleteTask(ctx context.Context, req ports.CompleteTaskRequest) (ports.TaskResponse, error) {
	if t.svc == nil {
		return ports.TaskResponse{}, capability.Unexpected("tasks handler not registered", nil)
	}
	done, err := t.svc.Complete(ctx, req.ID)
	if err != nil {
		return ports.TaskResponse{}, capability.Classify(err)
	}
	return ports.TaskResponse{Task: ports.NewTaskView(done)}, nil
}

// DeleteTask removes a task.
func (t *Tasks) DeleteTask(ctx context.Context, req ports.DeleteTaskRequest) (ports.DeleteTaskResponse, error) {
	if t.svc == nil {
		return ports.DeleteTaskResponse{}, capability.Unexpected("tasks handler not registered", nil)
	}
	if err := t.svc.Delete(ctx, req.ID); err != nil {
		return ports.DeleteTaskResponse{}, capability.Classify(err)
	}
	return ports.DeleteTaskResponse{Deleted: true}, nil
}

// Probes reports the strategy's health: its own dependency chain, which for
// the in-process strategy is the task store.
func (t *Tasks) Probes() []health.Probe {
	return []health.Probe{{
		Name:  "tasks.store",
		Ready: true,
		Check: func(ctx context.Context) error { return t.svc.Ping(ctx) },
	}}
}

// Ensure interface compliance.
var _ ports.TaskCapability = (*Tasks)(nil)
