package service

import (
	"context"
	"crypto/rand"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/doableapp/doable-server/internal/auth"
	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/id"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/validation"
)

type testEnv struct {
	store    *sqlite.Store
	todos    *TodoService
	tags     *TagService
	subtasks *SubtaskService
	auth     *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := sqlite.Open(dbPath, logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	return &testEnv{
		store:    s,
		todos:    NewTodoService(s, logger),
		tags:     NewTagService(s, logger),
		subtasks: NewSubtaskService(s, logger),
		auth:     NewAuthService(s, tokens, validation.New(), logger),
	}
}

func (e *testEnv) newUser(t *testing.T) string {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:           id.MustGenerate("user"),
		Email:        id.MustGenerate("user") + "@example.com",
		PasswordHash: "$argon2id$fake",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u.ID
}
