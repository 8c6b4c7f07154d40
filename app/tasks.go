// Package app contains the business services behind each module's
// capability contract. Services classify every failure into the capability
// error taxonomy before returning; storage and infrastructure errors never
// escape unwrapped.
package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/events"
	"github.com/taskgate/taskgate/domain/task"
	"github.com/taskgate/taskgate/ports"
)

// List paging bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// TaskService implements the tasks module's command and query handlers.
type TaskService struct {
	store  ports.TaskStore
	clock  ports.Clock
	ids    ports.IDGenerator
	bus    *events.Bus
	logger zerolog.Logger
}

// NewTaskService creates the tasks service.
func NewTaskService(store ports.TaskStore, clock ports.Clock, ids ports.IDGenerator, bus *events.Bus, logger zerolog.Logger) *TaskService {
	return &TaskService{
		store:  store,
		clock:  clock,
		ids:    ids,
		bus:    bus,
		logger: logger,
	}
}

// Create validates the parameters, persists a new task, and emits
// task.created.
func (s *TaskService) Create(ctx context.Context, params task.CreateParams) (task.Task, error) {
	if ferr := task.Validate(params); ferr != nil {
		return task.Task{}, capability.Validation(ferr.Field, ferr.Message)
	}

	t := task.New(s.ids.New(), params, s.clock.Now())
	if err := s.store.Create(ctx, t); err != nil {
		s.logger.Error().Err(err).Str("task_id", t.ID).Msg("task create failed")
		return task.Task{}, capability.Unexpected("could not create task", err)
	}

	s.publish(ctx, events.TaskCreated, t)
	s.logger.Debug().Str("task_id", t.ID).Msg("task created")
	return t, nil
}

// Get retrieves a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (task.Task, error) {
	if id == "" {
		return task.Task{}, capability.Validation("id", "id is required")
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, s.classifyStoreErr(err, id, "task get failed")
	}
	return t, nil
}

// List returns tasks matching the options and the unpaged total.
func (s *TaskService) List(ctx context.Context, opts ports.ListOptions) ([]task.Task, int, error) {
	if opts.Status != "" && !task.ValidStatus(opts.Status) {
		return nil, 0, capability.Validation("status", "status must be open or completed")
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, 0, capability.Validation("limit", "limit and offset must be non-negative")
	}
	if opts.Limit == 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}

	tasks, total, err := s.store.List(ctx, opts)
	if err != nil {
		s.logger.Error().Err(err).Msg("task list failed")
		return nil, 0, capability.Unexpected("could not list tasks", err)
	}
	return tasks, total, nil
}

// Complete marks a task completed and emits task.completed. Completing an
// already-completed task is a no-op success.
func (s *TaskService) Complete(ctx context.Context, id string) (task.Task, error) {
	if id == "" {
		return task.Task{}, capability.Validation("id", "id is required")
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, s.classifyStoreErr(err, id, "task complete failed")
	}
	if t.IsCompleted() {
		return t, nil
	}

	done := t.Complete(s.clock.Now())
	if err := s.store.Update(ctx, done); err != nil {
		return task.Task{}, s.classifyStoreErr(err, id, "task complete failed")
	}

	s.publish(ctx, events.TaskCompleted, done)
	s.logger.Debug().Str("task_id", id).Msg("task completed")
	return done, nil
}

// Delete removes a task and emits task.deleted.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return capability.Validation("id", "id is required")
	}

	t, err := s.store.Get(ctx, id)
	if err != nil {
		return s.classifyStoreErr(err, id, "task delete failed")
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return s.classifyStoreErr(err, id, "task delete failed")
	}

	s.publish(ctx, events.TaskDeleted, t)
	s.logger.Debug().Str("task_id", id).Msg("task deleted")
	return nil
}

// Ping verifies the service's dependency chain (the store).
func (s *TaskService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *TaskService) classifyStoreErr(err error, id, logMsg string) error {
	if errors.Is(err, ports.ErrTaskNotFound) {
		return capability.NotFound(id)
	}
	s.logger.Error().Err(err).Str("task_id", id).Msg(logMsg)
	return capability.Unexpected("task storage error", err)
}

func (s *TaskService) publish(ctx context.Context, name string, t task.Task) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, events.Event{
		Name:   name,
		Module: ports.TasksContract,
		Data: map[string]any{
			"id":     t.ID,
			"title":  t.Title,
			"status": string(t.Status),
		},
		At: s.clock.Now(),
	})
}
