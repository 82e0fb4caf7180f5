package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doableapp/doable-server/internal/ai"
	"github.com/doableapp/doable-server/internal/auth"
	"github.com/doableapp/doable-server/internal/config"
	"github.com/doableapp/doable-server/internal/logger"
	"github.com/doableapp/doable-server/internal/service"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/validation"
)

// testServer wraps the API server with a humatest client.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// stubCollaborator returns canned replies for API-level AI tests.
type stubCollaborator struct{}

func (stubCollaborator) ParseTodo(_ context.Context, _ string) (*ai.ParsedTodo, error) {
	due := "2026-09-02T09:00:00Z"
	return &ai.ParsedTodo{Title: "Buy milk", DueAt: &due, Priority: "high", Tags: []string{"Errands"}}, nil
}

func (stubCollaborator) RewriteTitle(_ context.Context, _ string) (string, error) {
	return "Buy 2L of whole milk", nil
}

func (stubCollaborator) SuggestSubtasks(_ context.Context, _ string) ([]string, error) {
	return []string{"Check fridge", "Go to store"}, nil
}

func (stubCollaborator) SuggestTags(_ context.Context, _ string, _ []string) ([]string, error) {
	return []string{"errands"}, nil
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	log := &logger.Logger{Logger: slogger}

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	authKey, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Name:        "Doable Test",
			CORSOrigins: []string{"*"},
		},
		Auth: config.AuthConfig{
			AccessTokenKey:       authKey,
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 30 * 24 * time.Hour,
		},
	}

	tokens, err := auth.NewTokenService(authKey, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
	require.NoError(t, err)

	services := &Services{
		Auth:    service.NewAuthService(st, tokens, validation.New(), slogger),
		Todo:    service.NewTodoService(st, slogger),
		Tag:     service.NewTagService(st, slogger),
		Subtask: service.NewSubtaskService(st, slogger),
		AI:      service.NewAIService(st, stubCollaborator{}, slogger),
	}

	srv := NewServer(cfg, st, services, log)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
	}
}

// registerUser registers a throwaway user and returns a bearer header.
func (ts *testServer) registerUser(t *testing.T, email string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var body struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return "Authorization: Bearer " + body.AccessToken
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func TestUnauthorizedRequests(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/todos")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Contains(t, resp.Body.String(), `"message":"Unauthorized"`)

	resp = ts.api.Get("/api/v1/todos", "Authorization: Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestTodoLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "lifecycle@example.com")

	// Create with defaults.
	resp := ts.api.Post("/api/v1/todos", authHeader, map[string]any{
		"title": "Buy milk",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "Buy milk", created.Title)
	assert.Equal(t, "medium", created.Priority)
	assert.False(t, created.IsCompleted)
	assert.NotNil(t, created.Tags)
	assert.Empty(t, created.Tags)
	assert.NotNil(t, created.Subtasks)

	// Tag it; duplicate spellings collapse to one normalized tag.
	resp = ts.api.Patch("/api/v1/todos/"+created.ID, authHeader, map[string]any{
		"tags": []string{"Errands", " errands "},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var updated TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "errands", updated.Tags[0].Name)

	// Complete it.
	resp = ts.api.Patch("/api/v1/todos/"+created.ID, authHeader, map[string]any{
		"is_completed": true,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	// Empty update is rejected.
	resp = ts.api.Patch("/api/v1/todos/"+created.ID, authHeader, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "At least one field is required")

	// Delete.
	resp = ts.api.Delete("/api/v1/todos/"+created.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)

	// Deleting again 404s.
	resp = ts.api.Delete("/api/v1/todos/"+created.ID, authHeader)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListTodosFiltersAndHydration(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "list@example.com")

	resp := ts.api.Post("/api/v1/todos", authHeader, map[string]any{
		"title":    "Work report",
		"priority": "high",
		"tags":     []string{"work"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var workTodo TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &workTodo))

	resp = ts.api.Post("/api/v1/todos/"+workTodo.ID+"/subtasks", authHeader, map[string]any{
		"title": "Draft outline",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/todos", authHeader, map[string]any{
		"title": "Walk the dog",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var list []TodoResponse

	// Unfiltered: newest first, everything hydrated.
	resp = ts.api.Get("/api/v1/todos", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "Walk the dog", list[0].Title)
	require.Len(t, list[1].Subtasks, 1)
	assert.Equal(t, "Draft outline", list[1].Subtasks[0].Title)

	// Tag filter.
	resp = ts.api.Get("/api/v1/todos?tag=work", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Work report", list[0].Title)

	// Search + priority filters.
	resp = ts.api.Get("/api/v1/todos?search=REPORT&priority=high", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &list))
	require.Len(t, list, 1)
}

func TestDueDateSetAndClear(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "due@example.com")

	resp := ts.api.Post("/api/v1/todos", authHeader, map[string]any{
		"title":  "Due later",
		"due_at": "2026-09-05T12:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var created TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.NotNil(t, created.DueAt)

	// Explicit null clears the due date.
	resp = ts.api.Patch("/api/v1/todos/"+created.ID, authHeader, map[string]any{
		"due_at": nil,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	var updated TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &updated))
	assert.Nil(t, updated.DueAt)
}

func TestSubtaskEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "subtask@example.com")

	resp := ts.api.Post("/api/v1/todos", authHeader, map[string]any{"title": "Parent"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var todo TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &todo))

	resp = ts.api.Post("/api/v1/todos/"+todo.ID+"/subtasks", authHeader, map[string]any{
		"title": "First step",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var sub SubtaskResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sub))
	assert.False(t, sub.IsDone)

	resp = ts.api.Patch("/api/v1/subtasks/"+sub.ID, authHeader, map[string]any{
		"is_done": true,
	})
	require.Equal(t, http.StatusOK, resp.Code)
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &sub))
	assert.True(t, sub.IsDone)

	resp = ts.api.Delete("/api/v1/subtasks/"+sub.ID, authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"success":true`)
}

func TestTagEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "tags@example.com")

	resp := ts.api.Post("/api/v1/todos", authHeader, map[string]any{
		"title": "Tagged",
		"tags":  []string{"work", "home"},
	})
	require.Equal(t, http.StatusCreated, resp.Code)
	var todo TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &todo))

	resp = ts.api.Get("/api/v1/tags", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	var tagList struct {
		Tags []TagResponse `json:"tags"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &tagList))
	require.Len(t, tagList.Tags, 2)
	assert.Equal(t, "home", tagList.Tags[0].Name)
	assert.Equal(t, "work", tagList.Tags[1].Name)

	// Untag the todo, then prune its orphans.
	resp = ts.api.Patch("/api/v1/todos/"+todo.ID, authHeader, map[string]any{
		"tags": []string{},
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/unused", authHeader)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"removed":2`)
}

func TestUserIsolation(t *testing.T) {
	ts := setupTestServer(t)
	aliceAuth := ts.registerUser(t, "alice@example.com")
	bobAuth := ts.registerUser(t, "bob@example.com")

	resp := ts.api.Post("/api/v1/todos", aliceAuth, map[string]any{"title": "Alice's secret"})
	require.Equal(t, http.StatusCreated, resp.Code)
	var todo TodoResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &todo))

	resp = ts.api.Get("/api/v1/todos/"+todo.ID, bobAuth)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/todos", bobAuth)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "[]", strings.TrimSpace(resp.Body.String()))
}

func TestAIEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	authHeader := ts.registerUser(t, "ai@example.com")

	resp := ts.api.Post("/api/v1/ai/parse", authHeader, map[string]any{
		"text": "buy milk tomorrow morning, important",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Contains(t, resp.Body.String(), `"title":"Buy milk"`)
	assert.Contains(t, resp.Body.String(), `"errands"`)

	resp = ts.api.Post("/api/v1/ai/rewrite", authHeader, map[string]any{"title": "milk??"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Buy 2L of whole milk")

	resp = ts.api.Post("/api/v1/ai/subtasks", authHeader, map[string]any{"title": "Buy milk"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Check fridge")

	resp = ts.api.Post("/api/v1/ai/tag", authHeader, map[string]any{"title": "Buy milk"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"errands"`)

	// AI routes require auth like everything else.
	resp = ts.api.Post("/api/v1/ai/parse", map[string]any{"text": "x"})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestLoginRateLimit(t *testing.T) {
	ts := setupTestServer(t)
	ts.registerUser(t, "victim@example.com")

	limited := false
	for i := 0; i < 10; i++ {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "victim@example.com",
			"password": fmt.Sprintf("wrong-%d", i),
		})
		if resp.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	}
	assert.True(t, limited, "repeated failures should hit the rate limit")
}
