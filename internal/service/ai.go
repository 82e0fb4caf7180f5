package service

import (
	"context"
	"log/slog"

	"github.com/doableapp/doable-server/internal/ai"
	domainerrors "github.com/doableapp/doable-server/internal/errors"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/util"
)

// AIService exposes the AI collaborator to handlers, enriching calls with
// the user's stored data. The collaborator may be nil when no API key is
// configured; every method then fails with a stable error.
type AIService struct {
	store        *sqlite.Store
	collaborator ai.Collaborator
	logger       *slog.Logger
}

// NewAIService creates a new AI service. collaborator may be nil.
func NewAIService(store *sqlite.Store, collaborator ai.Collaborator, logger *slog.Logger) *AIService {
	return &AIService{
		store:        store,
		collaborator: collaborator,
		logger:       logger,
	}
}

// Enabled reports whether a collaborator is configured.
func (s *AIService) Enabled() bool {
	return s.collaborator != nil
}

// ParseTodo turns free text into structured todo fields. Suggested tags come
// back normalized so they can be applied directly.
func (s *AIService) ParseTodo(ctx context.Context, text string) (*ai.ParsedTodo, error) {
	if s.collaborator == nil {
		return nil, domainerrors.AIUnavailable("The assistant is not configured")
	}
	if text == "" {
		return nil, domainerrors.Validation("Text is required")
	}

	parsed, err := s.collaborator.ParseTodo(ctx, text)
	if err != nil {
		return nil, err
	}
	parsed.Tags = util.NormalizeTagNames(parsed.Tags)
	return parsed, nil
}

// RewriteTitle rewrites a todo title to be clearer.
func (s *AIService) RewriteTitle(ctx context.Context, title string) (string, error) {
	if s.collaborator == nil {
		return "", domainerrors.AIUnavailable("The assistant is not configured")
	}
	if title == "" {
		return "", domainerrors.Validation("Title is required")
	}
	return s.collaborator.RewriteTitle(ctx, title)
}

// SuggestSubtasks proposes steps for completing the todo.
func (s *AIService) SuggestSubtasks(ctx context.Context, title string) ([]string, error) {
	if s.collaborator == nil {
		return nil, domainerrors.AIUnavailable("The assistant is not configured")
	}
	if title == "" {
		return nil, domainerrors.Validation("Title is required")
	}
	return s.collaborator.SuggestSubtasks(ctx, title)
}

// SuggestTags proposes tags for the todo, feeding the user's existing tags
// to the model so it can reuse them.
func (s *AIService) SuggestTags(ctx context.Context, userID, title string) ([]string, error) {
	if s.collaborator == nil {
		return nil, domainerrors.AIUnavailable("The assistant is not configured")
	}
	if title == "" {
		return nil, domainerrors.Validation("Title is required")
	}

	existingTags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing := make([]string, len(existingTags))
	for i, tag := range existingTags {
		existing[i] = tag.Name
	}

	suggested, err := s.collaborator.SuggestTags(ctx, title, existing)
	if err != nil {
		return nil, err
	}
	return util.NormalizeTagNames(suggested), nil
}
