package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/service"
)

func (s *Server) registerTodoRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTodos",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos",
		Summary:     "List todos",
		Description: "Returns the user's todos newest-first with tags and subtasks attached",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListTodos)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTodo",
		Method:        http.MethodPost,
		Path:          "/api/v1/todos",
		Summary:       "Create todo",
		Description:   "Creates a todo with optional due date, priority, and tags",
		Tags:          []string{"Todos"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTodo",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Get todo",
		Description: "Returns a todo by ID",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTodo",
		Method:      http.MethodPatch,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Update todo",
		Description: "Partially updates a todo; at least one field is required",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateTodo)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTodo",
		Method:      http.MethodDelete,
		Path:        "/api/v1/todos/{id}",
		Summary:     "Delete todo",
		Description: "Deletes a todo along with its tag links and subtasks",
		Tags:        []string{"Todos"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteTodo)
}

// === DTOs ===

// TagResponse contains tag data in API responses.
type TagResponse struct {
	ID   string `json:"id" doc:"Tag ID"`
	Name string `json:"name" doc:"Normalized tag name"`
}

// SubtaskResponse contains subtask data in API responses.
type SubtaskResponse struct {
	ID        string    `json:"id" doc:"Subtask ID"`
	TodoID    string    `json:"todo_id" doc:"Parent todo ID"`
	Title     string    `json:"title" doc:"Subtask title"`
	IsDone    bool      `json:"is_done" doc:"Completion state"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// TodoResponse contains a fully hydrated todo.
type TodoResponse struct {
	ID          string            `json:"id" doc:"Todo ID"`
	Title       string            `json:"title" doc:"Todo title"`
	IsCompleted bool              `json:"is_completed" doc:"Completion state"`
	DueAt       *time.Time        `json:"due_at,omitempty" doc:"Due date"`
	Priority    string            `json:"priority" doc:"Priority (low, medium, high)"`
	Tags        []TagResponse     `json:"tags" doc:"Linked tags"`
	Subtasks    []SubtaskResponse `json:"subtasks" doc:"Subtasks, oldest first"`
	CreatedAt   time.Time         `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time         `json:"updated_at" doc:"Last update time"`
}

// ListTodosInput contains parameters for listing todos.
type ListTodosInput struct {
	Authorization string `header:"Authorization"`
	Search        string `query:"search" doc:"Case-insensitive title search"`
	Status        string `query:"status" enum:"all,active,completed" required:"false" doc:"Completion filter"`
	Priority      string `query:"priority" enum:"low,medium,high" required:"false" doc:"Priority filter"`
	Tag           string `query:"tag" doc:"Only todos linked to this tag name"`
}

// ListTodosOutput wraps the todo list for Huma. The body is a bare
// array of hydrated todos, newest first.
type ListTodosOutput struct {
	Body []TodoResponse
}

// CreateTodoInput wraps the create todo request for Huma.
type CreateTodoInput struct {
	Authorization string `header:"Authorization"`
	Body          struct {
		Title    string     `json:"title" minLength:"1" maxLength:"500" doc:"Todo title"`
		DueAt    *time.Time `json:"due_at,omitempty" doc:"Due date"`
		Priority string     `json:"priority,omitempty" enum:"low,medium,high" doc:"Priority, defaults to medium"`
		Tags     []string   `json:"tags,omitempty" doc:"Tag names, normalized on write"`
	}
}

// TodoOutput wraps a single todo response for Huma.
type TodoOutput struct {
	Body TodoResponse
}

// GetTodoInput contains parameters for fetching a todo.
type GetTodoInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Todo ID"`
}

// UpdateTodoInput wraps the partial update request for Huma.
type UpdateTodoInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Todo ID"`
	Body          struct {
		Title       *string      `json:"title,omitempty" doc:"New title"`
		IsCompleted *bool        `json:"is_completed,omitempty" doc:"New completion state"`
		DueAt       NullableTime `json:"due_at,omitempty" doc:"New due date; null clears it"`
		Priority    *string      `json:"priority,omitempty" enum:"low,medium,high" doc:"New priority"`
		Tags        *[]string    `json:"tags,omitempty" doc:"Replacement tag set; empty list clears all tags"`
	}
}

// DeleteTodoOutput wraps the delete response for Huma.
type DeleteTodoOutput struct {
	Body struct {
		Success bool `json:"success" doc:"Whether the delete succeeded"`
	}
}

// === Handlers ===

func (s *Server) handleListTodos(ctx context.Context, input *ListTodosInput) (*ListTodosOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	todos, err := s.services.Todo.ListTodos(ctx, userID, service.ListOptions{
		Search:   input.Search,
		Status:   input.Status,
		Priority: input.Priority,
		Tag:      input.Tag,
	})
	if err != nil {
		return nil, err
	}

	out := &ListTodosOutput{Body: make([]TodoResponse, len(todos))}
	for i, todo := range todos {
		out.Body[i] = todoResponse(todo)
	}
	return out, nil
}

func (s *Server) handleCreateTodo(ctx context.Context, input *CreateTodoInput) (*TodoOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.CreateTodo(ctx, userID, service.CreateTodoRequest{
		Title:    input.Body.Title,
		DueAt:    input.Body.DueAt,
		Priority: input.Body.Priority,
		Tags:     input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todoResponse(todo)}, nil
}

func (s *Server) handleGetTodo(ctx context.Context, input *GetTodoInput) (*TodoOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.GetTodo(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todoResponse(todo)}, nil
}

func (s *Server) handleUpdateTodo(ctx context.Context, input *UpdateTodoInput) (*TodoOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	todo, err := s.services.Todo.UpdateTodo(ctx, userID, input.ID, service.UpdateTodoRequest{
		Title:       input.Body.Title,
		IsCompleted: input.Body.IsCompleted,
		DueAt:       input.Body.DueAt.Value,
		DueAtSet:    input.Body.DueAt.Set,
		Priority:    input.Body.Priority,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &TodoOutput{Body: todoResponse(todo)}, nil
}

func (s *Server) handleDeleteTodo(ctx context.Context, input *GetTodoInput) (*DeleteTodoOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Todo.DeleteTodo(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	out := &DeleteTodoOutput{}
	out.Body.Success = true
	return out, nil
}

// todoResponse maps a hydrated todo onto the wire shape.
func todoResponse(todo *domain.HydratedTodo) TodoResponse {
	tags := make([]TagResponse, len(todo.Tags))
	for i, tag := range todo.Tags {
		tags[i] = TagResponse{ID: tag.ID, Name: tag.Name}
	}

	subtasks := make([]SubtaskResponse, len(todo.Subtasks))
	for i, st := range todo.Subtasks {
		subtasks[i] = subtaskResponse(&st)
	}

	return TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		IsCompleted: todo.IsCompleted,
		DueAt:       todo.DueAt,
		Priority:    string(todo.Priority),
		Tags:        tags,
		Subtasks:    subtasks,
		CreatedAt:   todo.CreatedAt,
		UpdatedAt:   todo.UpdatedAt,
	}
}

func subtaskResponse(st *domain.Subtask) SubtaskResponse {
	return SubtaskResponse{
		ID:        st.ID,
		TodoID:    st.TodoID,
		Title:     st.Title,
		IsDone:    st.IsDone,
		CreatedAt: st.CreatedAt,
		UpdatedAt: st.UpdatedAt,
	}
}
