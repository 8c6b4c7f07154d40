package bus

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"github.com/taskgate/taskgate/core/capability"
	"github.com/taskgate/taskgate/ports"
)

// Listener is the server side of the bus strategy: it subscribes to the
// request channel and dispatches each envelope into a local handler,
// publishing the reply on the caller's reply channel. Fire-and-forget
// callers simply never subscribe to that channel; the publish is harmless.
type Listener struct {
	ps      PubSub
	handler ports.TaskCapability
	logger  zerolog.Logger
}

// NewListener creates a bus listener backed by a local tasks handler.
func NewListener(ps PubSub, handler ports.TaskCapability, logger zerolog.Logger) *Listener {
	return &Listener{ps: ps, handler: handler, logger: logger}
}

// Run consumes request envelopes until ctx is cancelled. Each envelope is
// handled in its own goroutine so a slow operation does not stall the
// channel.
func (l *Listener) Run(ctx context.Context) error {
	sub, err := l.ps.Subscribe(ctx, RequestChannel)
	if err != nil {
		return err
	}
	defer sub.Close()

	l.logger.Info().Str("channel", RequestChannel).Msg("bus listener started")

	for {
		select {
		case raw, ok := <-sub.Messages():
			if !ok {
				return nil
			}
			go l.dispatch(ctx, raw)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, raw []byte) {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		l.logger.Warn().Err(err).Msg("discarding malformed bus request")
		return
	}

	rep := reply{ID: req.ID}
	result, err := l.handle(ctx, req)
	if err != nil {
		rep.Error = encodeError(err)
	} else {
		payload, err := json.Marshal(result)
		if err != nil {
			rep.Error = encodeError(capability.Unexpected("could not encode reply", err))
		} else {
			rep.Payload = payload
		}
	}

	data, err := json.Marshal(rep)
	if err != nil {
		l.logger.Error().Err(err).Str("op", req.Op).Msg("could not encode bus reply")
		return
	}
	if err := l.ps.Publish(ctx, ReplyChannel(req.ID), data); err != nil {
		l.logger.Warn().Err(err).Str("op", req.Op).Str("id", req.ID).
			Msg("could not publish bus reply")
	}
}

func (l *Listener) handle(ctx context.Context, req request) (any, error) {
	switch req.Op {
	case OpCreateTask:
		var r ports.CreateTaskRequest
		if err := json.Unmarshal(req.Payload, &r); err != nil {
			return nil, capability.Validation("payload", "malformed request payload")
		}
		return l.handler.CreateTask(ctx, r)
	case OpGetTask:
		var r ports.GetTaskRequest
		if err := json.Unmarshal(req.Payload, &r); err != nil {
			return nil, capability.Validation("payload", "malformed request payload")
		}
		return l.handler.GetTask(ctx, r)
	case OpListTasks:
		var r ports.ListTasksRequest
		if err := json.Unmarshal(req.Payload, &r); err != nil {
			return nil, capability.Validation("payload", "malformed request payload")
		}
		return l.handler.ListTasks(ctx, r)
	case OpCompleteTask:
		var r ports.CompleteTaskRequest
		if err := json.Unmarshal(req.Payload, &r); err != nil {
			return nil, capability.Validation("payload", "malformed request payload")
		}
		return l.handler.CompleteTask(ctx, r)
	case OpDeleteTask:
		var r ports.DeleteTaskRequest
		if err := json.Unmarshal(req.Payload, &r); err != nil {
			return nil, capability.Validation("payload", "malformed request payload")
		}
		return l.handler.DeleteTask(ctx, r)
	default:
		return nil, capability.Unexpected("unknown operation "+req.Op, nil)
	}
}
