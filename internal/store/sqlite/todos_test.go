package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/id"
	"github.com/doableapp/doable-server/internal/store"
)

func newTestTodo(t *testing.T, s *Store, userID, title string) *domain.Todo {
	t.Helper()
	now := time.Now()
	todo := &domain.Todo{
		ID:        id.MustGenerate("todo"),
		UserID:    userID,
		Title:     title,
		Priority:  domain.PriorityMedium,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateTodo(context.Background(), todo); err != nil {
		t.Fatalf("create todo: %v", err)
	}
	return todo
}

func TestCreateAndGetTodo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	due := time.Now().Add(24 * time.Hour)
	todo := &domain.Todo{
		ID:        id.MustGenerate("todo"),
		UserID:    userID,
		Title:     "Buy milk",
		DueAt:     &due,
		Priority:  domain.PriorityHigh,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.GetTodo(ctx, userID, todo.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "Buy milk" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Priority != domain.PriorityHigh {
		t.Errorf("priority = %q", got.Priority)
	}
	if got.DueAt == nil || !got.DueAt.Equal(due) {
		t.Errorf("due_at = %v, want %v", got.DueAt, due)
	}
	if got.IsCompleted {
		t.Error("new todo should not be completed")
	}
}

func TestGetTodoScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s)
	other := newTestUser(t, s)

	todo := newTestTodo(t, s, owner, "private")

	if _, err := s.GetTodo(ctx, other, todo.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound for other user, got %v", err)
	}
}

func TestListTodosNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	base := time.Now().Add(-time.Hour)
	for i, title := range []string{"first", "second", "third"} {
		todo := &domain.Todo{
			ID:        id.MustGenerate("todo"),
			UserID:    userID,
			Title:     title,
			Priority:  domain.PriorityMedium,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.CreateTodo(ctx, todo); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	todos, err := s.ListTodos(ctx, userID, TodoFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(todos) != 3 {
		t.Fatalf("expected 3 todos, got %d", len(todos))
	}
	if todos[0].Title != "third" || todos[2].Title != "first" {
		t.Errorf("expected newest first, got %q, %q, %q", todos[0].Title, todos[1].Title, todos[2].Title)
	}
}

func TestListTodosFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	milk := newTestTodo(t, s, userID, "Buy milk")
	newTestTodo(t, s, userID, "Walk the dog")

	milk.IsCompleted = true
	milk.Priority = domain.PriorityHigh
	if err := s.UpdateTodo(ctx, milk); err != nil {
		t.Fatalf("update: %v", err)
	}

	todos, err := s.ListTodos(ctx, userID, TodoFilter{Search: "MILK"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != milk.ID {
		t.Errorf("case-insensitive search failed: %v", todos)
	}

	todos, err = s.ListTodos(ctx, userID, TodoFilter{Status: "completed"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != milk.ID {
		t.Errorf("completed filter failed")
	}

	todos, err = s.ListTodos(ctx, userID, TodoFilter{Status: "active"})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "Walk the dog" {
		t.Errorf("active filter failed")
	}

	todos, err = s.ListTodos(ctx, userID, TodoFilter{Priority: "high"})
	if err != nil {
		t.Fatalf("priority: %v", err)
	}
	if len(todos) != 1 || todos[0].ID != milk.ID {
		t.Errorf("priority filter failed")
	}
}

func TestListTodosSearchEscapesWildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	newTestTodo(t, s, userID, "100% done")
	newTestTodo(t, s, userID, "100 pct done")

	todos, err := s.ListTodos(ctx, userID, TodoFilter{Search: "100%"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "100% done" {
		t.Errorf("%% should match literally, got %d results", len(todos))
	}
}

func TestUpdateTodoNotFound(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s)

	missing := &domain.Todo{
		ID:        id.MustGenerate("todo"),
		UserID:    userID,
		Title:     "ghost",
		Priority:  domain.PriorityMedium,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.UpdateTodo(context.Background(), missing); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTodoCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	todo := newTestTodo(t, s, userID, "with children")

	tags, err := s.EnsureTags(ctx, userID, []string{"errands"})
	if err != nil {
		t.Fatalf("ensure tags: %v", err)
	}
	if err := s.ReplaceTodoTags(ctx, todo.ID, []string{tags[0].ID}); err != nil {
		t.Fatalf("link tags: %v", err)
	}

	sub := &domain.Subtask{
		ID:        id.MustGenerate("sub"),
		TodoID:    todo.ID,
		UserID:    userID,
		Title:     "step one",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.CreateSubtask(ctx, sub); err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	if err := s.DeleteTodo(ctx, userID, todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	links, err := s.GetTagsForTodos(ctx, []string{todo.ID})
	if err != nil {
		t.Fatalf("get tags: %v", err)
	}
	if len(links[todo.ID]) != 0 {
		t.Error("tag links should cascade on delete")
	}

	if _, err := s.GetSubtask(ctx, userID, sub.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("subtasks should cascade on delete, got %v", err)
	}

	if err := s.DeleteTodo(ctx, userID, todo.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete should return ErrNotFound, got %v", err)
	}
}

// Foreign-key enforcement is per connection in SQLite, so every pooled
// connection must carry the pragma, not just the one that ran setup.
func TestDeleteTodoCascadesOnSecondPoolConn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	todo := newTestTodo(t, s, userID, "with children")

	tags, err := s.EnsureTags(ctx, userID, []string{"errands"})
	if err != nil {
		t.Fatalf("ensure tags: %v", err)
	}
	if err := s.ReplaceTodoTags(ctx, todo.ID, []string{tags[0].ID}); err != nil {
		t.Fatalf("link tags: %v", err)
	}

	sub := &domain.Subtask{
		ID:        id.MustGenerate("sub"),
		TodoID:    todo.ID,
		UserID:    userID,
		Title:     "step one",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := s.CreateSubtask(ctx, sub); err != nil {
		t.Fatalf("create subtask: %v", err)
	}

	// Hold the warm connection out of the pool so the delete is served
	// by a freshly opened one.
	held, err := s.db.Conn(ctx)
	if err != nil {
		t.Fatalf("pin connection: %v", err)
	}
	defer held.Close()

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Fatalf("fresh pool connection has foreign_keys=%d, want 1", fk)
	}

	if err := s.DeleteTodo(ctx, userID, todo.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var links int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM todo_tags WHERE todo_id = ?", todo.ID).Scan(&links); err != nil {
		t.Fatalf("count links: %v", err)
	}
	if links != 0 {
		t.Errorf("found %d orphaned tag links after delete, want 0", links)
	}

	var subtasks int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM subtasks WHERE todo_id = ?", todo.ID).Scan(&subtasks); err != nil {
		t.Fatalf("count subtasks: %v", err)
	}
	if subtasks != 0 {
		t.Errorf("found %d orphaned subtasks after delete, want 0", subtasks)
	}
}
