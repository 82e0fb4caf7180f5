package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Returns all tags for the current user",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "pruneTags",
		Method:      http.MethodDelete,
		Path:        "/api/v1/tags/unused",
		Summary:     "Prune unused tags",
		Description: "Removes the user's tags no todo links to",
		Tags:        []string{"Tags"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handlePruneTags)
}

// === DTOs ===

// ListTagsInput contains parameters for listing tags.
type ListTagsInput struct {
	Authorization string `header:"Authorization"`
}

// ListTagsOutput wraps the tag list for Huma.
type ListTagsOutput struct {
	Body struct {
		Tags []TagResponse `json:"tags" doc:"Tags ordered by name"`
	}
}

// PruneTagsOutput wraps the prune response for Huma.
type PruneTagsOutput struct {
	Body struct {
		Removed int64 `json:"removed" doc:"Number of tags removed"`
	}
}

// === Handlers ===

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*ListTagsOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tag.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &ListTagsOutput{}
	out.Body.Tags = make([]TagResponse, len(tags))
	for i, tag := range tags {
		out.Body.Tags[i] = TagResponse{ID: tag.ID, Name: tag.Name}
	}
	return out, nil
}

func (s *Server) handlePruneTags(ctx context.Context, input *ListTagsInput) (*PruneTagsOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	removed, err := s.services.Tag.PruneUnused(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := &PruneTagsOutput{}
	out.Body.Removed = removed
	return out, nil
}
