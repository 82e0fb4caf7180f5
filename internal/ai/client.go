// Package ai implements the AI collaborator: natural-language parsing,
// title rewriting, and subtask/tag suggestions backed by the Anthropic API.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/doableapp/doable-server/internal/errors"
)

const maxReplyTokens = 1024

// The model must reply with machine-readable JSON only. Replies that drift
// from this are recovered by ExtractJSON where possible.
const jsonOnlyInstruction = "Reply with a single JSON object only. No prose, no markdown, no explanation."

// ParsedTodo is the structured result of parsing a natural-language capture.
type ParsedTodo struct {
	Title    string   `json:"title"`
	DueAt    *string  `json:"due_at,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Collaborator generates structured suggestions for todo content.
type Collaborator interface {
	ParseTodo(ctx context.Context, text string) (*ParsedTodo, error)
	RewriteTitle(ctx context.Context, title string) (string, error)
	SuggestSubtasks(ctx context.Context, title string) ([]string, error)
	SuggestTags(ctx context.Context, title string, existing []string) ([]string, error)
}

// AnthropicCollaborator implements Collaborator against the Anthropic Messages API.
type AnthropicCollaborator struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
	schemas *replySchemas
	logger  *slog.Logger
}

// NewAnthropicCollaborator creates a collaborator using the given API key and model.
func NewAnthropicCollaborator(apiKey, model string, timeout time.Duration, logger *slog.Logger) (*AnthropicCollaborator, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	return &AnthropicCollaborator{
		client:  anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: timeout,
		schemas: schemas,
		logger:  logger,
	}, nil
}

// ParseTodo turns a natural-language capture into structured todo fields.
func (c *AnthropicCollaborator) ParseTodo(ctx context.Context, text string) (*ParsedTodo, error) {
	prompt := fmt.Sprintf(`Parse this todo capture into structured fields.
Input: %q
Return JSON with keys: "title" (string, required), "due_at" (RFC3339 timestamp or null), "priority" ("low", "medium", "high", or null), "tags" (array of short lowercase strings).
Today is %s.`, text, time.Now().UTC().Format("2006-01-02"))

	raw, err := c.complete(ctx, prompt, c.schemas.parseTodo)
	if err != nil {
		return nil, err
	}

	var parsed ParsedTodo
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, errors.AIInvalidOutput("could not parse model reply").WithCause(err)
	}
	return &parsed, nil
}

// RewriteTitle rewrites a todo title to be clearer and actionable.
func (c *AnthropicCollaborator) RewriteTitle(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf(`Rewrite this todo title to be clear, concise, and actionable.
Input: %q
Return JSON with a single key "title".`, title)

	raw, err := c.complete(ctx, prompt, c.schemas.rewrite)
	if err != nil {
		return "", err
	}

	var result struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return "", errors.AIInvalidOutput("could not parse model reply").WithCause(err)
	}
	return result.Title, nil
}

// SuggestSubtasks proposes concrete steps for completing the todo.
func (c *AnthropicCollaborator) SuggestSubtasks(ctx context.Context, title string) ([]string, error) {
	prompt := fmt.Sprintf(`Break this todo into 3-5 concrete subtasks.
Todo: %q
Return JSON with a single key "subtasks" holding an array of short strings.`, title)

	raw, err := c.complete(ctx, prompt, c.schemas.subtasks)
	if err != nil {
		return nil, err
	}

	var result struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, errors.AIInvalidOutput("could not parse model reply").WithCause(err)
	}
	return result.Subtasks, nil
}

// SuggestTags proposes tags for the todo, preferring the user's existing tags.
func (c *AnthropicCollaborator) SuggestTags(ctx context.Context, title string, existing []string) ([]string, error) {
	prompt := fmt.Sprintf(`Suggest 1-3 tags for this todo. Prefer reusing existing tags when they fit.
Todo: %q
Existing tags: %s
Return JSON with a single key "tags" holding an array of short lowercase strings.`,
		title, strings.Join(existing, ", "))

	raw, err := c.complete(ctx, prompt, c.schemas.tags)
	if err != nil {
		return nil, err
	}

	var result struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, errors.AIInvalidOutput("could not parse model reply").WithCause(err)
	}
	return result.Tags, nil
}

// complete sends one prompt to the Messages API and returns the validated
// JSON object from the reply.
func (c *AnthropicCollaborator) complete(ctx context.Context, prompt string, schema *jsonschema.Schema) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxReplyTokens,
		System: []anthropic.TextBlockParam{
			{Text: jsonOnlyInstruction},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", errors.AIUnavailable("assistant is unavailable").WithCause(err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw, err := ExtractJSON(text.String())
	if err != nil {
		c.logger.Warn("model reply contained no JSON", "reply_len", text.Len())
		return "", errors.AIInvalidOutput("assistant returned no usable result").WithCause(err)
	}

	if err := validateReply(schema, raw); err != nil {
		c.logger.Warn("model reply failed schema validation", "error", err)
		return "", errors.AIInvalidOutput("assistant returned an unexpected result").WithCause(err)
	}

	return raw, nil
}
