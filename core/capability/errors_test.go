package capability_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/taskgate/taskgate/core/capability"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *capability.Error
		wantKind capability.Kind
		wantMsg  string
	}{
		{
			name:     "validation",
			err:      capability.Validation("title", "title is required"),
			wantKind: capability.KindValidation,
			wantMsg:  "validation: title: title is required",
		},
		{
			name:     "not found",
			err:      capability.NotFound("task-42"),
			wantKind: capability.KindNotFound,
			wantMsg:  "not found: task-42",
		},
		{
			name:     "unavailable",
			err:      capability.Unavailable("endpoint timeout"),
			wantKind: capability.KindUnavailable,
			wantMsg:  "unavailable: endpoint timeout",
		},
		{
			name:     "unexpected",
			err:      capability.Unexpected("internal error", errors.New("sql: no rows")),
			wantKind: capability.KindUnexpected,
			wantMsg:  "unexpected: internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
			if !capability.IsKind(tt.err, tt.wantKind) {
				t.Errorf("IsKind(%q) = false", tt.wantKind)
			}
		})
	}
}

func TestUnexpected_CauseStaysInternal(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := capability.Unexpected("internal error", cause)

	// Visible message carries no cause detail.
	if got := err.Error(); got != "unexpected: internal error" {
		t.Errorf("Error() = %q leaks cause", got)
	}
	// But the cause remains reachable for producer-side logging.
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestFromContext(t *testing.T) {
	if got := capability.FromContext(context.DeadlineExceeded); got.Kind != capability.KindUnavailable {
		t.Errorf("deadline: Kind = %q, want unavailable", got.Kind)
	}
	if got := capability.FromContext(context.Canceled); got.Kind != capability.KindUnavailable {
		t.Errorf("cancel: Kind = %q, want unavailable", got.Kind)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want capability.Kind
	}{
		{"nil", nil, ""},
		{"already classified", capability.NotFound("x"), capability.KindNotFound},
		{"wrapped classified", fmt.Errorf("call: %w", capability.Validation("f", "m")), capability.KindValidation},
		{"deadline", context.DeadlineExceeded, capability.KindUnavailable},
		{"cancelled", context.Canceled, capability.KindUnavailable},
		{"foreign", errors.New("boom"), capability.KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := capability.Classify(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("Classify(nil) = %v, want nil", got)
				}
				return
			}
			if got.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.want)
			}
		})
	}
}

func TestKindOf_ForeignError(t *testing.T) {
	if got := capability.KindOf(errors.New("boom")); got != capability.KindUnexpected {
		t.Errorf("KindOf = %q, want unexpected", got)
	}
}
