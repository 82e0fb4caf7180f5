package client

import "sync"

// QueryCache holds the last known todo list per query key. Values are
// cloned on the way in and out so callers can never mutate a cached
// snapshot in place; rollback depends on snapshots staying pristine.
type QueryCache struct {
	mu      sync.RWMutex
	entries map[ListQuery][]Todo
}

// NewQueryCache creates an empty cache.
func NewQueryCache() *QueryCache {
	return &QueryCache{
		entries: make(map[ListQuery][]Todo),
	}
}

// Get returns a copy of the cached list for the query, if present.
func (c *QueryCache) Get(q ListQuery) ([]Todo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	todos, ok := c.entries[q]
	if !ok {
		return nil, false
	}
	return cloneTodos(todos), true
}

// Set stores a copy of the list under the query key.
func (c *QueryCache) Set(q ListQuery, todos []Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[q] = cloneTodos(todos)
}

// Invalidate drops the entry for one query key.
func (c *QueryCache) Invalidate(q ListQuery) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, q)
}

// Clear drops every entry.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[ListQuery][]Todo)
}

// cloneTodos deep-copies a todo list including nested tags and subtasks.
func cloneTodos(todos []Todo) []Todo {
	if todos == nil {
		return nil
	}
	out := make([]Todo, len(todos))
	for i, todo := range todos {
		out[i] = cloneTodo(todo)
	}
	return out
}

func cloneTodo(todo Todo) Todo {
	clone := todo
	if todo.DueAt != nil {
		due := *todo.DueAt
		clone.DueAt = &due
	}
	clone.Tags = make([]Tag, len(todo.Tags))
	copy(clone.Tags, todo.Tags)
	clone.Subtasks = make([]Subtask, len(todo.Subtasks))
	copy(clone.Subtasks, todo.Subtasks)
	return clone
}
