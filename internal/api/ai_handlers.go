package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerAIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "aiParseTodo",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/parse",
		Summary:     "Parse capture",
		Description: "Turns free text into structured todo fields",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAIParse)

	huma.Register(s.api, huma.Operation{
		OperationID: "aiRewriteTitle",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/rewrite",
		Summary:     "Rewrite title",
		Description: "Rewrites a todo title to be clearer and actionable",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAIRewrite)

	huma.Register(s.api, huma.Operation{
		OperationID: "aiSuggestSubtasks",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/subtasks",
		Summary:     "Suggest subtasks",
		Description: "Proposes concrete steps for completing a todo",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAISubtasks)

	huma.Register(s.api, huma.Operation{
		OperationID: "aiSuggestTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/ai/tag",
		Summary:     "Suggest tags",
		Description: "Proposes tags for a todo, preferring the user's existing tags",
		Tags:        []string{"AI"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAITags)
}

// === DTOs ===

// AIParseInput wraps the parse request for Huma.
type AIParseInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Text string `json:"text" minLength:"1" maxLength:"2000" doc:"Free-text capture to parse"`
	}
}

// AIParseOutput wraps the parsed todo fields for Huma.
type AIParseOutput struct {
	Body struct {
		Title    string   `json:"title" doc:"Parsed title"`
		DueAt    *string  `json:"due_at,omitempty" doc:"Parsed due date, RFC3339"`
		Priority string   `json:"priority,omitempty" doc:"Parsed priority"`
		Tags     []string `json:"tags,omitempty" doc:"Suggested tags, normalized"`
	}
}

// AITitleInput wraps requests that take a title for Huma.
type AITitleInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Title string `json:"title" minLength:"1" maxLength:"500" doc:"Todo title"`
	}
}

// AIRewriteOutput wraps the rewritten title for Huma.
type AIRewriteOutput struct {
	Body struct {
		Title string `json:"title" doc:"Rewritten title"`
	}
}

// AISubtasksOutput wraps suggested subtasks for Huma.
type AISubtasksOutput struct {
	Body struct {
		Subtasks []string `json:"subtasks" doc:"Suggested subtask titles"`
	}
}

// AITagsOutput wraps suggested tags for Huma.
type AITagsOutput struct {
	Body struct {
		Tags []string `json:"tags" doc:"Suggested tags, normalized"`
	}
}

// === Handlers ===

func (s *Server) handleAIParse(ctx context.Context, input *AIParseInput) (*AIParseOutput, error) {
	if _, err := s.authenticateRequest(input.Authorization); err != nil {
		return nil, err
	}

	parsed, err := s.services.AI.ParseTodo(ctx, input.Body.Text)
	if err != nil {
		return nil, err
	}

	out := &AIParseOutput{}
	out.Body.Title = parsed.Title
	out.Body.DueAt = parsed.DueAt
	out.Body.Priority = parsed.Priority
	out.Body.Tags = parsed.Tags
	return out, nil
}

func (s *Server) handleAIRewrite(ctx context.Context, input *AITitleInput) (*AIRewriteOutput, error) {
	if _, err := s.authenticateRequest(input.Authorization); err != nil {
		return nil, err
	}

	title, err := s.services.AI.RewriteTitle(ctx, input.Body.Title)
	if err != nil {
		return nil, err
	}

	out := &AIRewriteOutput{}
	out.Body.Title = title
	return out, nil
}

func (s *Server) handleAISubtasks(ctx context.Context, input *AITitleInput) (*AISubtasksOutput, error) {
	if _, err := s.authenticateRequest(input.Authorization); err != nil {
		return nil, err
	}

	subtasks, err := s.services.AI.SuggestSubtasks(ctx, input.Body.Title)
	if err != nil {
		return nil, err
	}

	out := &AISubtasksOutput{}
	out.Body.Subtasks = subtasks
	return out, nil
}

func (s *Server) handleAITags(ctx context.Context, input *AITitleInput) (*AITagsOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	tags, err := s.services.AI.SuggestTags(ctx, userID, input.Body.Title)
	if err != nil {
		return nil, err
	}

	out := &AITagsOutput{}
	out.Body.Tags = tags
	return out, nil
}
