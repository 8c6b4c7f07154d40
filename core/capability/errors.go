// Package capability defines the transport-independent boundary between
// modules: the error taxonomy every strategy must classify into, and the
// process-wide registry that holds each module's bound strategy.
package capability

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a capability failure. Strategy implementations must map
// every underlying failure onto exactly one kind before returning; transport
// and storage errors never cross a module boundary unclassified.
type Kind string

// Failure kinds.
const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindUnavailable Kind = "unavailable"
	KindUnexpected  Kind = "unexpected"
)

// Error is the only error type that crosses a capability boundary.
// It carries no stack or transport detail; the producing side logs those.
type Error struct {
	Kind    Kind
	Field   string // set for KindValidation
	ID      string // set for KindNotFound
	Message string

	cause error // internal only, never serialized
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindValidation:
		return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
	case KindNotFound:
		return fmt.Sprintf("not found: %s", e.ID)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap exposes the internal cause for producer-side logging.
func (e *Error) Unwrap() error {
	return e.cause
}

// Validation reports an invalid request field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports a missing entity.
func NotFound(id string) *Error {
	return &Error{Kind: KindNotFound, ID: id, Message: "not found"}
}

// Unavailable reports a transient failure: the call may succeed if retried
// later. Timeouts, connection failures, and cancellation all map here.
func Unavailable(reason string) *Error {
	return &Error{Kind: KindUnavailable, Message: reason}
}

// Unexpected is the catch-all for failures that cannot be confidently
// classified. The summary is what the caller sees; cause stays internal.
func Unexpected(summary string, cause error) *Error {
	return &Error{Kind: KindUnexpected, Message: summary, cause: cause}
}

// FromContext maps a context error onto the taxonomy. Cancellation and
// deadline expiry both surface as Unavailable, keeping the taxonomy small.
func FromContext(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Unavailable("deadline exceeded")
	case errors.Is(err, context.Canceled):
		return Unavailable("call cancelled")
	default:
		return Unexpected("context error", err)
	}
}

// Classify returns err unchanged when it already is a capability Error, and
// wraps anything else as Unexpected. Strategies use it as a last line of
// defense so nothing unclassified escapes.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return FromContext(err)
	}
	return Unexpected("internal error", err)
}

// KindOf extracts the failure kind, or KindUnexpected for foreign errors.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnexpected
}

// IsKind reports whether err is a capability Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Kind == kind
}
