package ports

import "errors"

// ErrTaskNotFound is returned by TaskStore implementations when no task
// matches the requested ID. The application layer maps it onto the
// capability error taxonomy.
var ErrTaskNotFound = errors.New("task not found")
