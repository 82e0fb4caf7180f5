// Package domain defines the core entities of the doable server.
package domain

import "time"

// Priority represents the urgency of a todo.
type Priority string

const (
	// PriorityLow marks a todo as low urgency.
	PriorityLow Priority = "low"
	// PriorityMedium is the default urgency for new todos.
	PriorityMedium Priority = "medium"
	// PriorityHigh marks a todo as high urgency.
	PriorityHigh Priority = "high"
)

// IsValid reports whether p is one of the known priority levels.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo represents a single to-do item owned by one user.
type Todo struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	IsCompleted bool       `json:"is_completed"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	Priority    Priority   `json:"priority"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Todo) Touch() {
	t.UpdatedAt = time.Now().UTC()
}

// HydratedTodo is a todo with its related tags and subtasks attached.
// Tags and Subtasks are always non-nil, even when empty.
type HydratedTodo struct {
	Todo
	Tags     []Tag     `json:"tags"`
	Subtasks []Subtask `json:"subtasks"`
}
