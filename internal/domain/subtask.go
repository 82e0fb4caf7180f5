package domain

import "time"

// Subtask represents a checklist item belonging to one todo.
// Subtasks are exclusively owned by their parent; deleting the todo cascades.
type Subtask struct {
	ID        string    `json:"id"`
	TodoID    string    `json:"todo_id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	IsDone    bool      `json:"is_done"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (s *Subtask) Touch() {
	s.UpdatedAt = time.Now().UTC()
}
