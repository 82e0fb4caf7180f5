package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/store"
)

// subtaskColumns is the ordered list of columns selected in subtask queries.
// Must match the scan order in scanSubtask.
const subtaskColumns = `id, todo_id, user_id, title, is_done, created_at, updated_at`

// scanSubtask scans a sql.Row (or sql.Rows via its Scan method) into a domain.Subtask.
func scanSubtask(scanner interface{ Scan(dest ...any) error }) (*domain.Subtask, error) {
	var st domain.Subtask

	var (
		isDone    int
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&st.ID,
		&st.TodoID,
		&st.UserID,
		&st.Title,
		&isDone,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	st.IsDone = isDone != 0

	st.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	st.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &st, nil
}

// CreateSubtask inserts a new subtask into the database.
func (s *Store) CreateSubtask(ctx context.Context, st *domain.Subtask) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, todo_id, user_id, title, is_done, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		st.ID,
		st.TodoID,
		st.UserID,
		st.Title,
		boolToInt(st.IsDone),
		formatTime(st.CreatedAt),
		formatTime(st.UpdatedAt),
	)
	return err
}

// GetSubtask retrieves a subtask by ID, scoped to the owning user.
// Returns store.ErrNotFound if no matching row exists.
func (s *Store) GetSubtask(ctx context.Context, userID, subtaskID string) (*domain.Subtask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ? AND user_id = ?`, subtaskID, userID)

	st, err := scanSubtask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateSubtask persists the mutable fields of the subtask.
// Returns store.ErrNotFound if no matching row exists.
func (s *Store) UpdateSubtask(ctx context.Context, st *domain.Subtask) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subtasks
		SET title = ?, is_done = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		st.Title,
		boolToInt(st.IsDone),
		formatTime(st.UpdatedAt),
		st.ID,
		st.UserID,
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

// DeleteSubtask removes a subtask.
// Returns store.ErrNotFound if no matching row exists.
func (s *Store) DeleteSubtask(ctx context.Context, userID, subtaskID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM subtasks WHERE id = ? AND user_id = ?`, subtaskID, userID)
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

// GetSubtasksForTodos returns the subtasks of each of the given todos in a
// single batched query, keyed by todo ID and ordered oldest-first within a
// todo. Todos without subtasks have no entry.
func (s *Store) GetSubtasksForTodos(ctx context.Context, todoIDs []string) (map[string][]domain.Subtask, error) {
	result := make(map[string][]domain.Subtask)
	if len(todoIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(todoIDs)-1) + "?"
	args := make([]any, 0, len(todoIDs))
	for _, todoID := range todoIDs {
		args = append(args, todoID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subtaskColumns+` FROM subtasks
		WHERE todo_id IN (`+placeholders+`)
		ORDER BY created_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		result[st.TodoID] = append(result[st.TodoID], *st)
	}
	return result, rows.Err()
}
