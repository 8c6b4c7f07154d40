package task

import (
	"strings"
	"unicode/utf8"
)

// FieldError describes a single invalid field. It is a plain value so the
// capability layer can map it onto its own error taxonomy without importing
// anything from here beyond the type.
type FieldError struct {
	Field   string
	Message string
}

// Validate checks create parameters. It returns the first failing field, or
// nil when the params are acceptable.
func Validate(p CreateParams) *FieldError {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return &FieldError{Field: "title", Message: "title is required"}
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return &FieldError{Field: "title", Message: "title exceeds maximum length"}
	}
	if utf8.RuneCountInString(p.Notes) > MaxNotesLen {
		return &FieldError{Field: "notes", Message: "notes exceed maximum length"}
	}
	if !ValidPriority(p.Priority) {
		return &FieldError{Field: "priority", Message: "priority must be low, normal, or high"}
	}
	return nil
}
