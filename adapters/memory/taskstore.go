// Package memory provides in-memory store implementations. They back the
// "memory" database driver and double as fixtures in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/taskgate/taskgate/domain/task"
	"github.com/taskgate/taskgate/ports"
)

// TaskStore is an in-memory implementation of ports.TaskStore.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]task.Task
}

// NewTaskStore creates a new in-memory task store.
func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]task.Task)}
}

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, ports.ErrTaskNotFound
	}
	return t, nil
}

// Create stores a new task.
func (s *TaskStore) Create(ctx context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return nil
}

// Update modifies an existing task.
func (s *TaskStore) Update(ctx context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return ports.ErrTaskNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return ports.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// List returns tasks matching the options, newest first, plus the unpaged
// total for the filter.
func (s *TaskStore) List(ctx context.Context, opts ports.ListOptions) ([]task.Task, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return nil, total, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

// Ping always succeeds for the in-memory store.
func (s *TaskStore) Ping(ctx context.Context) error {
	return nil
}

// Ensure interface compliance.
var _ ports.TaskStore = (*TaskStore)(nil)
