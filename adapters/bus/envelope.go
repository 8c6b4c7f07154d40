package bus

import (
	"encoding/json"

	"github.com/taskgate/taskgate/core/capability"
)

// Operation names carried in request envelopes.
const (
	OpCreateTask   = "tasks.create"
	OpGetTask      = "tasks.get"
	OpListTasks    = "tasks.list"
	OpCompleteTask = "tasks.complete"
	OpDeleteTask   = "tasks.delete"
)

// request is the envelope published on the request channel.
type request struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// reply is the envelope published on the caller's reply channel. Exactly one
// of Error and Payload is set.
type reply struct {
	ID      string          `json:"id"`
	Error   *wireError      `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// wireError is the serialized form of a capability error. It matches the
// shape the REST surface uses so both transports speak the same taxonomy.
type wireError struct {
	Kind    string `json:"kind"`
	Field   string `json:"field,omitempty"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

func encodeError(err error) *wireError {
	ce := capability.Classify(err)
	return &wireError{
		Kind:    string(ce.Kind),
		Field:   ce.Field,
		ID:      ce.ID,
		Message: ce.Message,
	}
}

func (w *wireError) decode() *capability.Error {
	switch capability.Kind(w.Kind) {
	case capability.KindValidation:
		return capability.Validation(w.Field, w.Message)
	case capability.KindNotFound:
		return capability.NotFound(w.ID)
	case capability.KindUnavailable:
		return capability.Unavailable(w.Message)
	default:
		return capability.Unexpected(w.Message, nil)
	}
}
