// Package client is the Go SDK for the Doable API. Client issues
// individual requests; Controller layers an optimistic query cache on
// top for UI use.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the Doable API. Each method performs
// exactly one request and never touches any cache.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a client for the API at baseURL authenticating with the
// given bearer token.
func New(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
}

// SetToken replaces the bearer token, for use after a refresh.
func (c *Client) SetToken(token string) {
	c.token = token
}

// do executes one API request. A non-2xx response is returned as an
// *APIError carrying the server's message when the body has one.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("api request", "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(raw, &errBody)
		return newAPIError(resp.StatusCode, errBody.Message)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// ListTodos fetches the hydrated todo list matching the query.
func (c *Client) ListTodos(ctx context.Context, q ListQuery) ([]Todo, error) {
	query := url.Values{}
	if q.Search != "" {
		query.Set("search", q.Search)
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.Priority != "" {
		query.Set("priority", q.Priority)
	}
	if q.Tag != "" {
		query.Set("tag", q.Tag)
	}

	var todos []Todo
	if err := c.do(ctx, http.MethodGet, "/api/v1/todos", query, nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// GetTodo fetches one hydrated todo.
func (c *Client) GetTodo(ctx context.Context, id string) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodGet, "/api/v1/todos/"+id, nil, nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// CreateTodo creates a todo and returns the authoritative hydrated entity.
func (c *Client) CreateTodo(ctx context.Context, req CreateTodoRequest) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPost, "/api/v1/todos", nil, req, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo applies a partial update and returns the updated entity.
func (c *Client) UpdateTodo(ctx context.Context, id string, req UpdateTodoRequest) (*Todo, error) {
	var todo Todo
	if err := c.do(ctx, http.MethodPatch, "/api/v1/todos/"+id, nil, req.body(), &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo deletes a todo.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, "/api/v1/todos/"+id, nil, nil, &out)
}

// ListSubtasks fetches the subtasks of a todo, oldest first.
func (c *Client) ListSubtasks(ctx context.Context, todoID string) ([]Subtask, error) {
	var out struct {
		Subtasks []Subtask `json:"subtasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/todos/"+todoID+"/subtasks", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Subtasks, nil
}

// CreateSubtask adds a subtask to a todo.
func (c *Client) CreateSubtask(ctx context.Context, todoID, title string) (*Subtask, error) {
	body := map[string]any{"title": title}
	var subtask Subtask
	if err := c.do(ctx, http.MethodPost, "/api/v1/todos/"+todoID+"/subtasks", nil, body, &subtask); err != nil {
		return nil, err
	}
	return &subtask, nil
}

// UpdateSubtask applies a partial update to a subtask.
func (c *Client) UpdateSubtask(ctx context.Context, id string, req UpdateSubtaskRequest) (*Subtask, error) {
	var subtask Subtask
	if err := c.do(ctx, http.MethodPatch, "/api/v1/subtasks/"+id, nil, req, &subtask); err != nil {
		return nil, err
	}
	return &subtask, nil
}

// DeleteSubtask deletes a subtask.
func (c *Client) DeleteSubtask(ctx context.Context, id string) error {
	var out struct {
		Success bool `json:"success"`
	}
	return c.do(ctx, http.MethodDelete, "/api/v1/subtasks/"+id, nil, nil, &out)
}

// ListTags fetches the user's tags ordered by name.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var out struct {
		Tags []Tag `json:"tags"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/tags", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// ParseTodo asks the AI collaborator to turn free text into structured
// todo fields. Read-only; the caller decides whether to create anything.
func (c *Client) ParseTodo(ctx context.Context, text string) (*ParsedTodo, error) {
	body := map[string]any{"text": text}
	var parsed ParsedTodo
	if err := c.do(ctx, http.MethodPost, "/api/v1/ai/parse", nil, body, &parsed); err != nil {
		return nil, err
	}
	return &parsed, nil
}

// RewriteTitle asks the AI collaborator for a clearer version of a title.
func (c *Client) RewriteTitle(ctx context.Context, title string) (string, error) {
	body := map[string]any{"title": title}
	var out struct {
		Title string `json:"title"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ai/rewrite", nil, body, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// SuggestSubtasks asks the AI collaborator for subtask titles.
func (c *Client) SuggestSubtasks(ctx context.Context, title string) ([]string, error) {
	body := map[string]any{"title": title}
	var out struct {
		Subtasks []string `json:"subtasks"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ai/subtasks", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Subtasks, nil
}

// SuggestTags asks the AI collaborator for tag names.
func (c *Client) SuggestTags(ctx context.Context, title string) ([]string, error) {
	body := map[string]any{"title": title}
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/ai/tag", nil, body, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}
