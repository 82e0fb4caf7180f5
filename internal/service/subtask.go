package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/doableapp/doable-server/internal/domain"
	domainerrors "github.com/doableapp/doable-server/internal/errors"
	"github.com/doableapp/doable-server/internal/id"
	"github.com/doableapp/doable-server/internal/store/sqlite"
)

// SubtaskService orchestrates subtask CRUD. Every operation verifies the
// subtask (or its parent todo) belongs to the calling user.
type SubtaskService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewSubtaskService creates a new subtask service.
func NewSubtaskService(store *sqlite.Store, logger *slog.Logger) *SubtaskService {
	return &SubtaskService{
		store:  store,
		logger: logger,
	}
}

// UpdateSubtaskRequest contains the fields for a partial subtask update.
type UpdateSubtaskRequest struct {
	Title  *string
	IsDone *bool
}

// ListSubtasks returns the subtasks of the user's todo, oldest first.
func (s *SubtaskService) ListSubtasks(ctx context.Context, userID, todoID string) ([]domain.Subtask, error) {
	if _, err := s.store.GetTodo(ctx, userID, todoID); err != nil {
		return nil, err
	}

	grouped, err := s.store.GetSubtasksForTodos(ctx, []string{todoID})
	if err != nil {
		return nil, err
	}

	subtasks := grouped[todoID]
	if subtasks == nil {
		subtasks = []domain.Subtask{}
	}
	return subtasks, nil
}

// CreateSubtask adds a subtask to the user's todo.
func (s *SubtaskService) CreateSubtask(ctx context.Context, userID, todoID, title string) (*domain.Subtask, error) {
	if title == "" {
		return nil, domainerrors.Validation("Title is required")
	}

	// The parent todo must exist and belong to the user.
	if _, err := s.store.GetTodo(ctx, userID, todoID); err != nil {
		return nil, err
	}

	subtaskID, err := id.Generate("sub")
	if err != nil {
		return nil, err
	}

	now := time.Now()
	subtask := &domain.Subtask{
		ID:        subtaskID,
		TodoID:    todoID,
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateSubtask(ctx, subtask); err != nil {
		return nil, err
	}

	return subtask, nil
}

// UpdateSubtask applies a partial update to a subtask.
func (s *SubtaskService) UpdateSubtask(ctx context.Context, userID, subtaskID string, req UpdateSubtaskRequest) (*domain.Subtask, error) {
	if req.Title == nil && req.IsDone == nil {
		return nil, domainerrors.Validation("At least one field is required")
	}

	subtask, err := s.store.GetSubtask(ctx, userID, subtaskID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, domainerrors.Validation("Title cannot be empty")
		}
		subtask.Title = *req.Title
	}
	if req.IsDone != nil {
		subtask.IsDone = *req.IsDone
	}

	subtask.Touch()
	if err := s.store.UpdateSubtask(ctx, subtask); err != nil {
		return nil, err
	}
	return subtask, nil
}

// DeleteSubtask removes a subtask.
func (s *SubtaskService) DeleteSubtask(ctx context.Context, userID, subtaskID string) error {
	return s.store.DeleteSubtask(ctx, userID, subtaskID)
}
