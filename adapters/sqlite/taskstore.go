package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/taskgate/taskgate/domain/task"
	"github.com/taskgate/taskgate/ports"
)

// TaskStore implements ports.TaskStore using SQLite.
type TaskStore struct {
	db *DB
}

// NewTaskStore creates a new SQLite task store.
func NewTaskStore(db *DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, title, notes, status, priority, due_at, created_at, updated_at, completed_at`

// Get retrieves a task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE id = ?
	`, id)
	return scanTask(row)
}

// Create stores a new task.
func (s *TaskStore) Create(ctx context.Context, t task.Task) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, t.Notes, string(t.Status), string(t.Priority),
		nullableTime(t.DueAt), t.CreatedAt, t.UpdatedAt, nullableTime(t.CompletedAt))
	return err
}

// Update modifies an existing task.
func (s *TaskStore) Update(ctx context.Context, t task.Task) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, notes = ?, status = ?, priority = ?,
		    due_at = ?, updated_at = ?, completed_at = ?
		WHERE id = ?
	`, t.Title, t.Notes, string(t.Status), string(t.Priority),
		nullableTime(t.DueAt), t.UpdatedAt, nullableTime(t.CompletedAt), t.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrTaskNotFound
	}
	return nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ports.ErrTaskNotFound
	}
	return nil
}

// List returns tasks matching the options, newest first, plus the unpaged
// total for the filter.
func (s *TaskStore) List(ctx context.Context, opts ports.ListOptions) ([]task.Task, int, error) {
	where := ""
	args := []any{}
	if opts.Status != "" {
		where = "WHERE status = ?"
		args = append(args, string(opts.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks ` + where + `
		ORDER BY created_at DESC, id DESC
	`
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		t, err := scanTaskRows(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

// Ping verifies the database is reachable.
func (s *TaskStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Task, error) {
	var (
		t           task.Task
		status      string
		priority    string
		dueAt       sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Notes, &status, &priority,
		&dueAt, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, ports.ErrTaskNotFound
	}
	if err != nil {
		return task.Task{}, err
	}
	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	if dueAt.Valid {
		t.DueAt = &dueAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return t, nil
}

func scanTaskRows(rows *sql.Rows) (task.Task, error) {
	return scanTask(rows)
}

// Ensure interface compliance.
var _ ports.TaskStore = (*TaskStore)(nil)
