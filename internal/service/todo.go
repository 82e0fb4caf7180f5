// Package service contains the application's business logic, sitting between
// the HTTP handlers and the store.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/doableapp/doable-server/internal/domain"
	domainerrors "github.com/doableapp/doable-server/internal/errors"
	"github.com/doableapp/doable-server/internal/id"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/util"
)

// TodoService orchestrates todo CRUD, hydration, and tag linking.
type TodoService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewTodoService creates a new todo service.
func NewTodoService(store *sqlite.Store, logger *slog.Logger) *TodoService {
	return &TodoService{
		store:  store,
		logger: logger,
	}
}

// ListOptions narrows ListTodos results.
type ListOptions struct {
	// Search matches titles case-insensitively.
	Search string
	// Status is "all", "active", or "completed".
	Status string
	// Priority is "low", "medium", or "high".
	Priority string
	// Tag keeps only todos linked to this tag name. Applied after hydration
	// since the tag rows are already in hand at that point.
	Tag string
}

// CreateTodoRequest contains the fields for creating a todo.
type CreateTodoRequest struct {
	Title    string
	DueAt    *time.Time
	Priority string
	Tags     []string
}

// UpdateTodoRequest contains the fields for a partial todo update.
// Nil pointers mean "leave unchanged". DueAtSet distinguishes clearing the
// due date (set with nil DueAt) from not touching it.
type UpdateTodoRequest struct {
	Title       *string
	IsCompleted *bool
	DueAt       *time.Time
	DueAtSet    bool
	Priority    *string
	Tags        *[]string
}

// IsEmpty reports whether the update names no fields at all.
func (r UpdateTodoRequest) IsEmpty() bool {
	return r.Title == nil && r.IsCompleted == nil && !r.DueAtSet && r.Priority == nil && r.Tags == nil
}

// ListTodos returns the user's todos newest-first with tags and subtasks
// attached, applying search, status, and priority filters in the query and
// the tag filter after hydration.
func (s *TodoService) ListTodos(ctx context.Context, userID string, opts ListOptions) ([]*domain.HydratedTodo, error) {
	status := opts.Status
	if status == "all" {
		status = ""
	}

	todos, err := s.store.ListTodos(ctx, userID, sqlite.TodoFilter{
		Search:   opts.Search,
		Status:   status,
		Priority: opts.Priority,
	})
	if err != nil {
		return nil, err
	}

	hydrated, err := s.hydrate(ctx, todos)
	if err != nil {
		return nil, err
	}

	if opts.Tag == "" {
		return hydrated, nil
	}

	wanted := util.NormalizeTagName(opts.Tag)
	filtered := make([]*domain.HydratedTodo, 0, len(hydrated))
	for _, h := range hydrated {
		for _, tag := range h.Tags {
			if tag.Name == wanted {
				filtered = append(filtered, h)
				break
			}
		}
	}
	return filtered, nil
}

// GetTodo returns a single hydrated todo.
func (s *TodoService) GetTodo(ctx context.Context, userID, todoID string) (*domain.HydratedTodo, error) {
	todo, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}

	hydrated, err := s.hydrate(ctx, []*domain.Todo{todo})
	if err != nil {
		return nil, err
	}
	return hydrated[0], nil
}

// CreateTodo creates a todo with optional due date, priority, and tags.
func (s *TodoService) CreateTodo(ctx context.Context, userID string, req CreateTodoRequest) (*domain.HydratedTodo, error) {
	if req.Title == "" {
		return nil, domainerrors.Validation("Title is required")
	}

	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.IsValid() {
		return nil, domainerrors.Validationf("Invalid priority %q", req.Priority)
	}

	todoID, err := id.Generate("todo")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	todo := &domain.Todo{
		ID:        todoID,
		UserID:    userID,
		Title:     req.Title,
		DueAt:     req.DueAt,
		Priority:  priority,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateTodo(ctx, todo); err != nil {
		return nil, err
	}

	if names := util.NormalizeTagNames(req.Tags); len(names) > 0 {
		if err := s.applyTags(ctx, userID, todo.ID, names); err != nil {
			return nil, err
		}
	}

	s.logger.Info("todo created", "todo_id", todo.ID, "user_id", userID)
	return s.GetTodo(ctx, userID, todo.ID)
}

// UpdateTodo applies a partial update. An update naming no fields is
// rejected. A tags-only update does not rewrite the todo row.
func (s *TodoService) UpdateTodo(ctx context.Context, userID, todoID string, req UpdateTodoRequest) (*domain.HydratedTodo, error) {
	if req.IsEmpty() {
		return nil, domainerrors.Validation("At least one field is required")
	}

	todo, err := s.store.GetTodo(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}

	rowChanged := false
	if req.Title != nil {
		if *req.Title == "" {
			return nil, domainerrors.Validation("Title cannot be empty")
		}
		todo.Title = *req.Title
		rowChanged = true
	}
	if req.IsCompleted != nil {
		todo.IsCompleted = *req.IsCompleted
		rowChanged = true
	}
	if req.DueAtSet {
		todo.DueAt = req.DueAt
		rowChanged = true
	}
	if req.Priority != nil {
		priority := domain.Priority(*req.Priority)
		if !priority.IsValid() {
			return nil, domainerrors.Validationf("Invalid priority %q", *req.Priority)
		}
		todo.Priority = priority
		rowChanged = true
	}

	if rowChanged {
		todo.Touch()
		if err := s.store.UpdateTodo(ctx, todo); err != nil {
			return nil, err
		}
	}

	if req.Tags != nil {
		if err := s.applyTags(ctx, userID, todo.ID, util.NormalizeTagNames(*req.Tags)); err != nil {
			return nil, err
		}
	}

	return s.GetTodo(ctx, userID, todoID)
}

// DeleteTodo removes a todo along with its tag links and subtasks.
func (s *TodoService) DeleteTodo(ctx context.Context, userID, todoID string) error {
	if err := s.store.DeleteTodo(ctx, userID, todoID); err != nil {
		return err
	}
	s.logger.Info("todo deleted", "todo_id", todoID, "user_id", userID)
	return nil
}

// applyTags resolves the normalized names to tag rows and replaces the
// todo's links with exactly that set.
func (s *TodoService) applyTags(ctx context.Context, userID, todoID string, names []string) error {
	tags, err := s.store.EnsureTags(ctx, userID, names)
	if err != nil {
		return err
	}

	tagIDs := make([]string, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID
	}
	return s.store.ReplaceTodoTags(ctx, todoID, tagIDs)
}

// hydrate attaches tags and subtasks to each todo with two batched queries.
// Todos without either still get empty, non-nil slices.
func (s *TodoService) hydrate(ctx context.Context, todos []*domain.Todo) ([]*domain.HydratedTodo, error) {
	hydrated := make([]*domain.HydratedTodo, 0, len(todos))
	if len(todos) == 0 {
		return hydrated, nil
	}

	todoIDs := make([]string, len(todos))
	for i, t := range todos {
		todoIDs[i] = t.ID
	}

	tagsByTodo, err := s.store.GetTagsForTodos(ctx, todoIDs)
	if err != nil {
		return nil, err
	}
	subtasksByTodo, err := s.store.GetSubtasksForTodos(ctx, todoIDs)
	if err != nil {
		return nil, err
	}

	for _, t := range todos {
		h := &domain.HydratedTodo{
			Todo:     *t,
			Tags:     tagsByTodo[t.ID],
			Subtasks: subtasksByTodo[t.ID],
		}
		if h.Tags == nil {
			h.Tags = []domain.Tag{}
		}
		if h.Subtasks == nil {
			h.Subtasks = []domain.Subtask{}
		}
		hydrated = append(hydrated, h)
	}
	return hydrated, nil
}
