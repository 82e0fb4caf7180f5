package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doableapp/doable-server/internal/ai"
	domainerrors "github.com/doableapp/doable-server/internal/errors"
)

// fakeCollaborator returns canned replies so the service layer can be tested
// without a network.
type fakeCollaborator struct {
	parsed   *ai.ParsedTodo
	title    string
	subtasks []string
	tags     []string

	lastExisting []string
}

func (f *fakeCollaborator) ParseTodo(_ context.Context, _ string) (*ai.ParsedTodo, error) {
	return f.parsed, nil
}

func (f *fakeCollaborator) RewriteTitle(_ context.Context, _ string) (string, error) {
	return f.title, nil
}

func (f *fakeCollaborator) SuggestSubtasks(_ context.Context, _ string) ([]string, error) {
	return f.subtasks, nil
}

func (f *fakeCollaborator) SuggestTags(_ context.Context, _ string, existing []string) ([]string, error) {
	f.lastExisting = existing
	return f.tags, nil
}

func TestAIServiceDisabled(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAIService(env.store, nil, logger)

	assert.False(t, svc.Enabled())

	_, err := svc.ParseTodo(context.Background(), "buy milk tomorrow")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeAIUnavailable, domainErr.Code)
}

func TestAIServiceParseNormalizesTags(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := &fakeCollaborator{
		parsed: &ai.ParsedTodo{Title: "Buy milk", Tags: []string{"Errands", " errands ", "Food"}},
	}
	svc := NewAIService(env.store, fake, logger)

	parsed, err := svc.ParseTodo(context.Background(), "buy milk tomorrow")
	require.NoError(t, err)
	assert.Equal(t, []string{"errands", "food"}, parsed.Tags)
}

func TestAIServiceRejectsEmptyInput(t *testing.T) {
	env := newTestEnv(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewAIService(env.store, &fakeCollaborator{}, logger)

	_, err := svc.RewriteTitle(context.Background(), "")
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
}

func TestAIServiceSuggestTagsFeedsExisting(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID := env.newUser(t)

	_, err := env.tags.EnsureTags(ctx, userID, []string{"work", "home"})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fake := &fakeCollaborator{tags: []string{"Work", "new-tag"}}
	svc := NewAIService(env.store, fake, logger)

	suggested, err := svc.SuggestTags(ctx, userID, "prepare slides")
	require.NoError(t, err)
	assert.Equal(t, []string{"work", "new-tag"}, suggested)
	assert.ElementsMatch(t, []string{"work", "home"}, fake.lastExisting)
}
