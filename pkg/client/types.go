package client

import (
	"fmt"
	"time"
)

// Todo is the hydrated todo shape returned by the server. Tags and
// Subtasks are always present, never nil.
type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"is_completed"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Priority    string     `json:"priority"`
	Tags        []Tag      `json:"tags"`
	Subtasks    []Subtask  `json:"subtasks"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Tag is a normalized tag as returned by the server.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Subtask is a subtask as returned by the server.
type Subtask struct {
	ID        string    `json:"id"`
	TodoID    string    `json:"todo_id"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"is_done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListQuery identifies one logical todo list. It doubles as the cache
// key, so all fields must stay comparable.
type ListQuery struct {
	Search   string
	Status   string
	Priority string
	Tag      string
}

// CreateTodoRequest carries the fields for a todo create.
type CreateTodoRequest struct {
	Title    string     `json:"title"`
	DueAt    *time.Time `json:"due_at,omitempty"`
	Priority string     `json:"priority,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
}

// UpdateTodoRequest carries the fields for a partial todo update. Nil
// pointers are omitted from the request. ClearDueAt sends an explicit
// null for due_at, which the server treats as clearing the date.
type UpdateTodoRequest struct {
	Title       *string
	IsCompleted *bool
	DueAt       *time.Time
	ClearDueAt  bool
	Priority    *string
	Tags        *[]string
}

// body builds the PATCH payload, keeping absent fields out entirely so
// the server can tell "not sent" from "sent as null".
func (r UpdateTodoRequest) body() map[string]any {
	body := map[string]any{}
	if r.Title != nil {
		body["title"] = *r.Title
	}
	if r.IsCompleted != nil {
		body["is_completed"] = *r.IsCompleted
	}
	if r.ClearDueAt {
		body["due_at"] = nil
	} else if r.DueAt != nil {
		body["due_at"] = r.DueAt
	}
	if r.Priority != nil {
		body["priority"] = *r.Priority
	}
	if r.Tags != nil {
		body["tags"] = *r.Tags
	}
	return body
}

// UpdateSubtaskRequest carries the fields for a partial subtask update.
type UpdateSubtaskRequest struct {
	Title  *string `json:"title,omitempty"`
	IsDone *bool   `json:"is_done,omitempty"`
}

// ParsedTodo is the structured result of an AI parse call.
type ParsedTodo struct {
	Title    string   `json:"title"`
	DueAt    *string  `json:"due_at,omitempty"`
	Priority string   `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// APIError is a server-reported request failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// newAPIError builds an APIError from a response, falling back to a
// generic message when the body carries none.
func newAPIError(status int, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("request failed: %d", status)
	}
	return &APIError{Status: status, Message: message}
}
