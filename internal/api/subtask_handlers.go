package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/doableapp/doable-server/internal/service"
)

func (s *Server) registerSubtaskRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSubtasks",
		Method:      http.MethodGet,
		Path:        "/api/v1/todos/{id}/subtasks",
		Summary:     "List subtasks",
		Description: "Lists the subtasks of a todo, oldest first",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSubtasks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createSubtask",
		Method:        http.MethodPost,
		Path:          "/api/v1/todos/{id}/subtasks",
		Summary:       "Create subtask",
		Description:   "Adds a subtask to a todo",
		Tags:          []string{"Subtasks"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateSubtask)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSubtask",
		Method:      http.MethodPatch,
		Path:        "/api/v1/subtasks/{id}",
		Summary:     "Update subtask",
		Description: "Partially updates a subtask; at least one field is required",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateSubtask)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSubtask",
		Method:      http.MethodDelete,
		Path:        "/api/v1/subtasks/{id}",
		Summary:     "Delete subtask",
		Description: "Deletes a subtask",
		Tags:        []string{"Subtasks"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteSubtask)
}

// === DTOs ===

// ListSubtasksInput contains parameters for listing a todo's subtasks.
type ListSubtasksInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Parent todo ID"`
}

// ListSubtasksOutput wraps the subtask list for Huma.
type ListSubtasksOutput struct {
	Body struct {
		Subtasks []SubtaskResponse `json:"subtasks" doc:"Subtasks, oldest first"`
	}
}

// CreateSubtaskInput wraps the create subtask request for Huma.
type CreateSubtaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Parent todo ID"`
	Body          struct {
		Title string `json:"title" minLength:"1" maxLength:"500" doc:"Subtask title"`
	}
}

// SubtaskOutput wraps a single subtask response for Huma.
type SubtaskOutput struct {
	Body SubtaskResponse
}

// UpdateSubtaskInput wraps the partial update request for Huma.
type UpdateSubtaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Subtask ID"`
	Body          struct {
		Title  *string `json:"title,omitempty" doc:"New title"`
		IsDone *bool   `json:"is_done,omitempty" doc:"New completion state"`
	}
}

// DeleteSubtaskInput contains parameters for deleting a subtask.
type DeleteSubtaskInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Subtask ID"`
}

// === Handlers ===

func (s *Server) handleListSubtasks(ctx context.Context, input *ListSubtasksInput) (*ListSubtasksOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	subtasks, err := s.services.Subtask.ListSubtasks(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}

	out := &ListSubtasksOutput{}
	out.Body.Subtasks = make([]SubtaskResponse, len(subtasks))
	for i := range subtasks {
		out.Body.Subtasks[i] = subtaskResponse(&subtasks[i])
	}
	return out, nil
}

func (s *Server) handleCreateSubtask(ctx context.Context, input *CreateSubtaskInput) (*SubtaskOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Subtask.CreateSubtask(ctx, userID, input.ID, input.Body.Title)
	if err != nil {
		return nil, err
	}
	return &SubtaskOutput{Body: subtaskResponse(subtask)}, nil
}

func (s *Server) handleUpdateSubtask(ctx context.Context, input *UpdateSubtaskInput) (*SubtaskOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	subtask, err := s.services.Subtask.UpdateSubtask(ctx, userID, input.ID, service.UpdateSubtaskRequest{
		Title:  input.Body.Title,
		IsDone: input.Body.IsDone,
	})
	if err != nil {
		return nil, err
	}
	return &SubtaskOutput{Body: subtaskResponse(subtask)}, nil
}

func (s *Server) handleDeleteSubtask(ctx context.Context, input *DeleteSubtaskInput) (*DeleteTodoOutput, error) {
	userID, err := s.authenticateRequest(input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Subtask.DeleteSubtask(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	out := &DeleteTodoOutput{}
	out.Body.Success = true
	return out, nil
}
