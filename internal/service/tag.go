package service

import (
	"context"
	"log/slog"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/util"
)

// TagService orchestrates tag operations. Tags are per-user and always
// stored in normalized form (trimmed, lowercased).
type TagService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *sqlite.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns all of the user's tags ordered by name.
func (s *TagService) ListTags(ctx context.Context, userID string) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx, userID)
}

// EnsureTags normalizes the raw names and resolves each to an existing or
// newly created tag. Blank and duplicate names are dropped.
func (s *TagService) EnsureTags(ctx context.Context, userID string, rawNames []string) ([]*domain.Tag, error) {
	names := util.NormalizeTagNames(rawNames)
	return s.store.EnsureTags(ctx, userID, names)
}

// PruneUnused removes the user's tags no todo links to anymore.
func (s *TagService) PruneUnused(ctx context.Context, userID string) (int64, error) {
	removed, err := s.store.DeleteUnusedTags(ctx, userID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.Info("pruned unused tags", "user_id", userID, "count", removed)
	}
	return removed, nil
}
