package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/doableapp/doable-server/internal/util"
)

// Board columns for drag-and-drop moves.
const (
	ColumnActive    = "active"
	ColumnCompleted = "completed"
)

// Controller owns the optimistic view of the todo lists. It is the only
// writer to its QueryCache: every mutation snapshots the cached list,
// applies a speculative edit synchronously, then reconciles with the
// server response. On failure the snapshot is restored exactly and the
// error surfaced without retry. Either way the list is refetched once
// the mutation settles so temporary IDs and server-computed fields are
// replaced by authoritative values.
type Controller struct {
	client *Client
	cache  *QueryCache
	logger *slog.Logger

	mu     sync.Mutex
	reads  map[ListQuery]*readHandle
	tmpSeq atomic.Int64
}

// readHandle identifies one in-flight list fetch so a mutation can
// cancel it without cancelling a newer read for the same key.
type readHandle struct {
	cancel context.CancelFunc
}

// NewController creates a controller with an empty cache.
func NewController(client *Client, logger *slog.Logger) *Controller {
	return &Controller{
		client: client,
		cache:  NewQueryCache(),
		logger: logger,
		reads:  make(map[ListQuery]*readHandle),
	}
}

// Cache exposes the underlying cache for read-only use by UI components.
func (c *Controller) Cache() *QueryCache {
	return c.cache
}

// IsTemporaryID reports whether an ID is a placeholder issued locally
// for an optimistic create that has not settled yet.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, "tmp-")
}

// Todos returns the cached list for the query, fetching it on a miss.
func (c *Controller) Todos(ctx context.Context, q ListQuery) ([]Todo, error) {
	if todos, ok := c.cache.Get(q); ok {
		return todos, nil
	}
	return c.Refresh(ctx, q)
}

// Refresh fetches the authoritative list and stores it in the cache.
// If a mutation starts while the fetch is in flight, the stale result
// is discarded so it cannot clobber the optimistic write.
func (c *Controller) Refresh(ctx context.Context, q ListQuery) ([]Todo, error) {
	readCtx, cancel := context.WithCancel(ctx)
	handle := &readHandle{cancel: cancel}

	c.mu.Lock()
	if prev, ok := c.reads[q]; ok {
		prev.cancel()
	}
	c.reads[q] = handle
	c.mu.Unlock()

	defer func() {
		cancel()
		c.mu.Lock()
		if c.reads[q] == handle {
			delete(c.reads, q)
		}
		c.mu.Unlock()
	}()

	todos, err := c.client.ListTodos(readCtx, q)
	if err != nil {
		return nil, err
	}

	// The cancellation check and the cache write have to happen under
	// the same lock beginMutation holds, or a mutation slipping in
	// between them would have its optimistic write clobbered by this
	// stale result.
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reads[q] != handle || readCtx.Err() != nil {
		return nil, context.Canceled
	}
	delete(c.reads, q)
	c.cache.Set(q, todos)
	return todos, nil
}

// CreateTodo optimistically inserts a placeholder at the head of the
// list, then creates the todo on the server.
func (c *Controller) CreateTodo(ctx context.Context, q ListQuery, req CreateTodoRequest) (*Todo, error) {
	placeholder := c.placeholderTodo(req)
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		return append([]Todo{placeholder}, todos...)
	})

	todo, err := c.client.CreateTodo(ctx, req)
	c.settle(ctx, q, snapshot, had, err)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// UpdateTodo optimistically patches the matching entry, then applies
// the update on the server.
func (c *Controller) UpdateTodo(ctx context.Context, q ListQuery, id string, req UpdateTodoRequest) (*Todo, error) {
	now := time.Now()
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		for i := range todos {
			if todos[i].ID == id {
				c.patchTodo(&todos[i], req, now)
			}
		}
		return todos
	})

	todo, err := c.client.UpdateTodo(ctx, id, req)
	c.settle(ctx, q, snapshot, had, err)
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo optimistically removes the entry, then deletes it on the
// server.
func (c *Controller) DeleteTodo(ctx context.Context, q ListQuery, id string) error {
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		out := todos[:0]
		for _, todo := range todos {
			if todo.ID != id {
				out = append(out, todo)
			}
		}
		return out
	})

	err := c.client.DeleteTodo(ctx, id)
	c.settle(ctx, q, snapshot, had, err)
	return err
}

// MoveTodo handles a drag-and-drop move between board columns. The
// target column determines the completion flag; dropping a todo into
// the column it is already in issues no mutation at all.
func (c *Controller) MoveTodo(ctx context.Context, q ListQuery, id, column string) (*Todo, error) {
	var completed bool
	switch column {
	case ColumnActive:
		completed = false
	case ColumnCompleted:
		completed = true
	default:
		return nil, fmt.Errorf("unknown column %q", column)
	}

	if todos, ok := c.cache.Get(q); ok {
		for _, todo := range todos {
			if todo.ID == id && todo.IsCompleted == completed {
				return nil, nil
			}
		}
	}

	return c.UpdateTodo(ctx, q, id, UpdateTodoRequest{IsCompleted: &completed})
}

// ApplyRewrite writes an AI-suggested title back through the standard
// optimistic path. The suggestion round trip itself (Client.RewriteTitle)
// never touches the cache.
func (c *Controller) ApplyRewrite(ctx context.Context, q ListQuery, id, title string) (*Todo, error) {
	return c.UpdateTodo(ctx, q, id, UpdateTodoRequest{Title: &title})
}

// AddSubtask optimistically appends a placeholder subtask to the parent
// todo, then creates it on the server.
func (c *Controller) AddSubtask(ctx context.Context, q ListQuery, todoID, title string) (*Subtask, error) {
	now := time.Now()
	placeholder := Subtask{
		ID:        c.tempID("sub"),
		TodoID:    todoID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		for i := range todos {
			if todos[i].ID == todoID {
				todos[i].Subtasks = append(todos[i].Subtasks, placeholder)
			}
		}
		return todos
	})

	subtask, err := c.client.CreateSubtask(ctx, todoID, title)
	c.settle(ctx, q, snapshot, had, err)
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// ToggleSubtask optimistically flips the done flag of a subtask, then
// persists the change.
func (c *Controller) ToggleSubtask(ctx context.Context, q ListQuery, subtaskID string, done bool) (*Subtask, error) {
	now := time.Now()
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		for i := range todos {
			for j := range todos[i].Subtasks {
				if todos[i].Subtasks[j].ID == subtaskID {
					todos[i].Subtasks[j].IsDone = done
					todos[i].Subtasks[j].UpdatedAt = now
				}
			}
		}
		return todos
	})

	subtask, err := c.client.UpdateSubtask(ctx, subtaskID, UpdateSubtaskRequest{IsDone: &done})
	c.settle(ctx, q, snapshot, had, err)
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// RemoveSubtask optimistically removes a subtask from its parent, then
// deletes it on the server.
func (c *Controller) RemoveSubtask(ctx context.Context, q ListQuery, subtaskID string) error {
	snapshot, had := c.beginMutation(q, func(todos []Todo) []Todo {
		for i := range todos {
			kept := todos[i].Subtasks[:0]
			for _, st := range todos[i].Subtasks {
				if st.ID != subtaskID {
					kept = append(kept, st)
				}
			}
			todos[i].Subtasks = kept
		}
		return todos
	})

	err := c.client.DeleteSubtask(ctx, subtaskID)
	c.settle(ctx, q, snapshot, had, err)
	return err
}

// beginMutation cancels in-flight reads for the key, snapshots the
// current cache value, and applies the speculative edit. The cancel,
// snapshot, and apply happen under one lock so a concurrent read
// completion cannot slip in between. Returns the snapshot and whether
// the key was cached at all.
func (c *Controller) beginMutation(q ListQuery, apply func(todos []Todo) []Todo) ([]Todo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handle, ok := c.reads[q]; ok {
		handle.cancel()
		delete(c.reads, q)
	}

	snapshot, ok := c.cache.Get(q)
	if !ok {
		return nil, false
	}

	working, _ := c.cache.Get(q)
	c.cache.Set(q, apply(working))
	return snapshot, true
}

// settle finishes a mutation: on failure the snapshot is restored
// exactly before anything else, then the authoritative list is
// refetched regardless of outcome so the optimistic view never stays
// stale for longer than one round trip.
func (c *Controller) settle(ctx context.Context, q ListQuery, snapshot []Todo, had bool, mutErr error) {
	if mutErr != nil {
		if had {
			c.cache.Set(q, snapshot)
		}
		if ctx.Err() != nil {
			return
		}
	}

	if _, err := c.Refresh(ctx, q); err != nil {
		c.logger.Warn("list refetch after mutation failed", "error", err)
	}
}

// placeholderTodo builds the speculative entity shown while a create is
// in flight. Tag names are normalized the same way the server will
// normalize them so the placeholder reads right in the UI.
func (c *Controller) placeholderTodo(req CreateTodoRequest) Todo {
	now := time.Now()

	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	names := util.NormalizeTagNames(req.Tags)
	tags := make([]Tag, len(names))
	for i, name := range names {
		tags[i] = Tag{ID: c.tempID("tag"), Name: name}
	}

	var dueAt *time.Time
	if req.DueAt != nil {
		due := *req.DueAt
		dueAt = &due
	}

	return Todo{
		ID:        c.tempID("todo"),
		Title:     req.Title,
		DueAt:     dueAt,
		Priority:  priority,
		Tags:      tags,
		Subtasks:  []Subtask{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// patchTodo applies an update request to a cached entry in place.
func (c *Controller) patchTodo(todo *Todo, req UpdateTodoRequest, now time.Time) {
	if req.Title != nil {
		todo.Title = *req.Title
	}
	if req.IsCompleted != nil {
		todo.IsCompleted = *req.IsCompleted
	}
	if req.ClearDueAt {
		todo.DueAt = nil
	} else if req.DueAt != nil {
		due := *req.DueAt
		todo.DueAt = &due
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.Tags != nil {
		names := util.NormalizeTagNames(*req.Tags)
		tags := make([]Tag, len(names))
		for i, name := range names {
			tags[i] = Tag{ID: c.tempID("tag"), Name: name}
		}
		todo.Tags = tags
	}
	todo.UpdatedAt = now
}

func (c *Controller) tempID(kind string) string {
	return fmt.Sprintf("tmp-%s-%d", kind, c.tmpSeq.Add(1))
}
