package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/ports"
)

// Tasks delegates the tasks capability to a remote taskgate instance over
// its REST surface. The wire schema mirrors the contract's request and
// response records one-for-one.
//
// API Contract:
//
//	POST   /tasks                 -> 201 {"task": {...}}
//	GET    /tasks/{id}            -> 200 {"task": {...}}
//	GET    /tasks?status=&limit=  -> 200 {"tasks": [...], "total": n}
//	POST   /tasks/{id}/complete   -> 200 {"task": {...}}
//	DELETE /tasks/{id}            -> 200 {"deleted": true}
type Tasks struct {
	client *Client
}

// NewTasks creates the HTTP tasks strategy.
func NewTasks(client *Client) *Tasks {
	return &Tasks{client: client}
}

// CreateTask creates a new task on the remote instance.
func (t *Tasks) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (ports.TaskResponse, error) {
	var resp ports.TaskResponse
	if err := t.client.Do(ctx, http.MethodPost, "/tasks", req, &resp); err != nil {
		return ports.TaskResponse{}, err
	}
	return resp, nil
}

// GetTask retrieves a task by ID.
func (t *Tasks) GetTask(ctx context.Context, req ports.GetTaskRequest) (ports.TaskResponse, error) {
	if req.ID == "" {
		return ports.TaskResponse{}, capability.Validation("id", "id is required")
	}
	var resp ports.TaskResponse
	if err := t.client.Do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(req.ID), nil, &resp); err != nil {
		return ports.TaskResponse{}, err
	}
	return resp, nil
}

// ListTasks returns tasks matching the request.
func (t *Tasks) ListTasks(ctx context.Context, req ports.ListTasksRequest) (ports.ListTasksResponse, error) {
	q := url.Values{}
	if req.Status != "" {
		q.Set("status", string(req.Status))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", strconv.Itoa(req.Offset))
	}
	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ports.ListTasksResponse
	if err := t.client.Do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return ports.ListTasksResponse{}, err
	}
	return resp, nil
}

// CompleteTask marks a task completed.
func (t *Tasks) CompleteTask(ctx context.Context, req ports.CompleteTaskRequest) (ports.TaskResponse, error) {
	if req.ID == "" {
		return ports.TaskResponse{}, capability.Validation("id", "id is required")
	}
	var resp ports.TaskResponse
	if err := t.client.Do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(req.ID)+"/complete", nil, &resp); err != nil {
		return ports.TaskResponse{}, err
	}
	return resp, nil
}

// DeleteTask removes a task.
func (t *Tasks) DeleteTask(ctx context.Context, req ports.DeleteTaskRequest) (ports.DeleteTaskResponse, error) {
	if req.ID == "" {
		return ports.DeleteTaskResponse{}, capability.Validation("id", "id is required")
	}
	var resp ports.DeleteTaskResponse
	if err := t.client.Do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(req.ID), nil, &resp); err != nil {
		return ports.DeleteTaskResponse{}, err
	}
	return resp, nil
}

// Probes reports the strategy's health by checking the remote endpoint's
// readiness path. A single attempt, no retries: a probe should observe, not
// mask, a flapping endpoint.
func (t *Tasks) Probes() []health.Probe {
	return []health.Probe{{
		Name:  "tasks.endpoint",
		Ready: true,
		Check: func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.client.baseURL+"/health/ready", nil)
			if err != nil {
				return err
			}
			resp, err := t.client.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("endpoint readiness returned %d", resp.StatusCode)
			}
			return nil
		},
	}}
}

// Ensure interface compliance.
var _ ports.TaskCapability = (*Tasks)(nil)
