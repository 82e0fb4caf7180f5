package domain

// Tag represents a user-owned label for categorizing todos.
// Name is the normalized form (trimmed, lower-cased) and is the source of
// truth for tag identity: a user can never hold two tags with the same name.
type Tag struct {
	ID     string `json:"id"`
	UserID string `json:"-"`
	Name   string `json:"name"`
}
