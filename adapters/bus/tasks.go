package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/core/health"
	"github.com/taskgate/taskgate/ports"
)

// Semantics selects how mutating calls behave over the bus.
type Semantics string

const (
	// RequestReply awaits a correlated reply for every call.
	RequestReply Semantics = "request_reply"
	// FireForget publishes mutations and acknowledges immediately without
	// waiting for the handler. Reads always use request/reply; a read
	// without a reply has no value.
	FireForget Semantics = "fire_forget"
)

// ValidSemantics reports whether s is a recognized semantics value.
// Empty is valid and means RequestReply.
func ValidSemantics(s Semantics) bool {
	return s == "" || s == RequestReply || s == FireForget
}

// DefaultTimeout bounds how long a request/reply call waits for its reply.
const DefaultTimeout = 5 * time.Second

// Tasks is the message-bus strategy for the tasks capability.
type Tasks struct {
	ps        PubSub
	semantics Semantics
	timeout   time.Duration
	logger    zerolog.Logger
}

// Config configures the message-bus tasks strategy.
type Config struct {
	PubSub    PubSub
	Semantics Semantics // empty = RequestReply
	Timeout   time.Duration
	Logger    zerolog.Logger
}

// NewTasks creates the message-bus tasks strategy.
func NewTasks(cfg Config) *Tasks {
	semantics := cfg.Semantics
	if semantics == "" {
		semantics = RequestReply
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Tasks{
		ps:        cfg.PubSub,
		semantics: semantics,
		timeout:   timeout,
		logger:    cfg.Logger,
	}
}

// CreateTask creates a new task. Under fire-and-forget semantics the call
// returns an accepted acknowledgement without the created task's identity.
func (t *Tasks) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (ports.TaskResponse, error) {
	if t.semantics == FireForget {
		if err := t.send(ctx, OpCreateTask, req); err != nil {
			return ports.TaskResponse{}, err
		}
		return ports.TaskResponse{Accepted: true}, nil
	}
	var resp ports.TaskResponse
	if err := t.call(ctx, OpCreateTask, req, &resp); err != nil {
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
	if err := t.call(ctx, OpGetTask, req, &resp); err != nil {
		return ports.TaskResponse{}, err
	}
	return resp, nil
}

// ListTasks returns tasks matching the request.
func (t *Tasks) ListTasks(ctx context.Context, req ports.ListTasksRequest) (ports.ListTasksResponse, error) {
	var resp ports.ListTasksResponse
	if err := t.call(ctx, OpListTasks, req, &resp); err != nil {
		return ports.ListTasksResponse{}, err
	}
	return resp, nil
}

// CompleteTask marks a task completed.
func (t *Tasks) CompleteTask(ctx context.Context, req ports.CompleteTaskRequest) (ports.TaskResponse, error) {
	if req.ID == "" {
		return ports.TaskResponse{}, capability.Validation("id", "id is required")
	}
	if t.semantics == FireForget {
		if err := t.send(ctx, OpCompleteTask, req); err != nil {
			return ports.TaskResponse{}, err
		}
		return ports.TaskResponse{Accepted: true}, nil
	}
	var resp ports.TaskResponse
	if err := t.call(ctx, OpCompleteTask, req, &resp); err != nil {
		return ports.TaskResponse{}, err
	}
	return resp, nil
}

// DeleteTask removes a task.
func (t *Tasks) DeleteTask(ctx context.Context, req ports.DeleteTaskRequest) (ports.DeleteTaskResponse, error) {
	if req.ID == "" {
		return ports.DeleteTaskResponse{}, capability.Validation("id", "id is required")
	}
	if t.semantics == FireForget {
		if err := t.send(ctx, OpDeleteTask, req); err != nil {
			return ports.DeleteTaskResponse{}, err
		}
		return ports.DeleteTaskResponse{Accepted: true}, nil
	}
	var resp ports.DeleteTaskResponse
	if err := t.call(ctx, OpDeleteTask, req, &resp); err != nil {
		return ports.DeleteTaskResponse{}, err
	}
	return resp, nil
}

// call publishes a request and awaits the correlated reply. The reply
// channel is subscribed before publishing so the reply cannot be missed.
// A reply that does not arrive within the timeout surfaces as Unavailable.
func (t *Tasks) call(ctx context.Context, op string, in, out any) error {
	data, id, err := t.envelope(op, in)
	if err != nil {
		return err
	}

	sub, err := t.ps.Subscribe(ctx, ReplyChannel(id))
	if err != nil {
		return capability.Unavailable(fmt.Sprintf("bus subscribe failed: %v", err))
	}
	defer sub.Close()

	if err := t.ps.Publish(ctx, RequestChannel, data); err != nil {
		return capability.Unavailable(fmt.Sprintf("bus publish failed: %v", err))
	}

	timer := time.NewTimer(t.timeout)
	defer timer.Stop()

	select {
	case raw, ok := <-sub.Messages():
		if !ok {
			return capability.Unavailable("bus subscription closed")
		}
		var rep reply
		if err := json.Unmarshal(raw, &rep); err != nil {
			return capability.Unexpected("malformed bus reply", err)
		}
		if rep.Error != nil {
			return rep.Error.decode()
		}
		if out != nil && len(rep.Payload) > 0 {
			if err := json.Unmarshal(rep.Payload, out); err != nil {
				return capability.Unexpected("malformed bus payload", err)
			}
		}
		return nil
	case <-timer.C:
		t.logger.Warn().Str("op", op).Str("id", id).Dur("timeout", t.timeout).
			Msg("no bus reply within timeout")
		return capability.Unavailable(fmt.Sprintf("no reply within %s", t.timeout))
	case <-ctx.Done():
		return capability.FromContext(ctx.Err())
	}
}

// send publishes a request without awaiting a reply.
func (t *Tasks) send(ctx context.Context, op string, in any) error {
	data, _, err := t.envelope(op, in)
	if err != nil {
		return err
	}
	if err := t.ps.Publish(ctx, RequestChannel, data); err != nil {
		return capability.Unavailable(fmt.Sprintf("bus publish failed: %v", err))
	}
	return nil
}

func (t *Tasks) envelope(op string, in any) ([]byte, string, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, "", capability.Unexpected("could not encode request", err)
	}
	id := uuid.NewString()
	data, err := json.Marshal(request{ID: id, Op: op, Payload: payload})
	if err != nil {
		return nil, "", capability.Unexpected("could not encode envelope", err)
	}
	return data, id, nil
}

// Probes reports the strategy's health by pinging the broker.
func (t *Tasks) Probes() []health.Probe {
	return []health.Probe{{
		Name:  "tasks.bus",
		Ready: true,
		Check: func(ctx context.Context) error { return t.ps.Ping(ctx) },
	}}
}

// Ensure interface compliance.
var _ ports.TaskCapability = (*Tasks)(nil)
