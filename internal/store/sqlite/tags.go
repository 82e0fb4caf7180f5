package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/id"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, user_id, name`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag
	if err := scanner.Scan(&t.ID, &t.UserID, &t.Name); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTags returns all of the user's tags ordered by name.
func (s *Store) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// getTagsByNames fetches the user's tags whose names are in the given set.
func (s *Store) getTagsByNames(ctx context.Context, userID string, names []string) ([]*domain.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(names)-1) + "?"
	args := make([]any, 0, len(names)+1)
	args = append(args, userID)
	for _, name := range names {
		args = append(args, name)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE user_id = ? AND name IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// EnsureTags resolves each normalized name to the user's tag with that name,
// creating any that do not exist. A concurrent insert of the same name is
// resolved by refetching the winner's row, so the caller always gets one tag
// per name regardless of races.
func (s *Store) EnsureTags(ctx context.Context, userID string, names []string) ([]*domain.Tag, error) {
	if len(names) == 0 {
		return nil, nil
	}

	existing, err := s.getTagsByNames(ctx, userID, names)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*domain.Tag, len(names))
	for _, t := range existing {
		byName[t.Name] = t
	}

	for _, name := range names {
		if _, ok := byName[name]; ok {
			continue
		}

		tagID, err := id.Generate("tag")
		if err != nil {
			return nil, fmt.Errorf("generate tag ID: %w", err)
		}

		_, err = s.db.ExecContext(ctx,
			`INSERT INTO tags (id, user_id, name) VALUES (?, ?, ?)`,
			tagID, userID, name)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				// Lost the race; fetch the row the other writer created.
				winners, ferr := s.getTagsByNames(ctx, userID, []string{name})
				if ferr != nil {
					return nil, ferr
				}
				if len(winners) == 1 {
					byName[name] = winners[0]
					continue
				}
			}
			return nil, err
		}

		byName[name] = &domain.Tag{ID: tagID, UserID: userID, Name: name}
	}

	tags := make([]*domain.Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, byName[name])
	}
	return tags, nil
}

// ReplaceTodoTags replaces the todo's tag links with exactly the given tag IDs.
// Delete and insert happen in one transaction so readers never observe a
// partial link set.
func (s *Store) ReplaceTodoTags(ctx context.Context, todoID string, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM todo_tags WHERE todo_id = ?`, todoID); err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO todo_tags (todo_id, tag_id) VALUES (?, ?)`, todoID, tagID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTagsForTodos returns the tags linked to each of the given todos in a
// single batched query, keyed by todo ID. Todos without tags have no entry.
func (s *Store) GetTagsForTodos(ctx context.Context, todoIDs []string) (map[string][]domain.Tag, error) {
	result := make(map[string][]domain.Tag)
	if len(todoIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(todoIDs)-1) + "?"
	args := make([]any, 0, len(todoIDs))
	for _, todoID := range todoIDs {
		args = append(args, todoID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT tt.todo_id, t.id, t.user_id, t.name
		FROM todo_tags tt
		JOIN tags t ON t.id = tt.tag_id
		WHERE tt.todo_id IN (`+placeholders+`)
		ORDER BY t.name ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var todoID string
		var t domain.Tag
		if err := rows.Scan(&todoID, &t.ID, &t.UserID, &t.Name); err != nil {
			return nil, err
		}
		result[todoID] = append(result[todoID], t)
	}
	return result, rows.Err()
}

// DeleteUnusedTags removes the user's tags that no todo links to.
// Returns the number of tags removed.
func (s *Store) DeleteUnusedTags(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM tags
		WHERE user_id = ?
		  AND id NOT IN (SELECT tag_id FROM todo_tags)`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
