package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/store"
)

// todoColumns is the ordered list of columns selected in todo queries.
// Must match the scan order in scanTodo.
const todoColumns = `id, user_id, title, is_completed, due_at, priority, created_at, updated_at`

// TodoFilter narrows ListTodos results. Zero values mean "no filter".
type TodoFilter struct {
	// Search matches the title case-insensitively as a substring.
	Search string
	// Status is "active", "completed", or "" / "all".
	Status string
	// Priority is "low", "medium", "high", or "".
	Priority string
}

// scanTodo scans a sql.Row (or sql.Rows via its Scan method) into a domain.Todo.
func scanTodo(scanner interface{ Scan(dest ...any) error }) (*domain.Todo, error) {
	var t domain.Todo

	var (
		isCompleted int
		dueAt       sql.NullString
		priority    string
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&isCompleted,
		&dueAt,
		&priority,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.IsCompleted = isCompleted != 0
	t.Priority = domain.Priority(priority)

	t.DueAt, err = parseNullableTime(dueAt)
	if err != nil {
		return nil, err
	}
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	t.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTodo inserts a new todo into the database.
func (s *Store) CreateTodo(ctx context.Context, t *domain.Todo) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO todos (id, user_id, title, is_completed, due_at, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.UserID,
		t.Title,
		boolToInt(t.IsCompleted),
		formatNullableTime(t.DueAt),
		string(t.Priority),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
	)
	return err
}

// GetTodo retrieves a todo by ID, scoped to the owning user.
// Returns store.ErrNotFound if the todo does not exist or belongs to someone else.
func (s *Store) GetTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = ? AND user_id = ?`, todoID, userID)

	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTodos returns the user's todos newest-first, applying the filter in-query.
func (s *Store) ListTodos(ctx context.Context, userID string, filter TodoFilter) ([]*domain.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE user_id = ?`
	args := []any{userID}

	if filter.Search != "" {
		query += ` AND title LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	switch filter.Status {
	case "active":
		query += ` AND is_completed = 0`
	case "completed":
		query += ` AND is_completed = 1`
	}
	if filter.Priority != "" {
		query += ` AND priority = ?`
		args = append(args, filter.Priority)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*domain.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// UpdateTodo persists all mutable fields of the todo.
// Returns store.ErrNotFound if no matching row exists.
func (s *Store) UpdateTodo(ctx context.Context, t *domain.Todo) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE todos
		SET title = ?, is_completed = ?, due_at = ?, priority = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		t.Title,
		boolToInt(t.IsCompleted),
		formatNullableTime(t.DueAt),
		string(t.Priority),
		formatTime(t.UpdatedAt),
		t.ID,
		t.UserID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTodo removes a todo. Tag links and subtasks cascade.
// Returns store.ErrNotFound if no matching row exists.
func (s *Store) DeleteTodo(ctx context.Context, userID, todoID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = ? AND user_id = ?`, todoID, userID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike escapes LIKE metacharacters so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
