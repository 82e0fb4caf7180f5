package sqlite

import (
	"context"
	"testing"
)

func TestEnsureTagsCreatesAndReuses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	tags, err := s.EnsureTags(ctx, userID, []string{"work", "errands"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(tags))
	}

	// A second call resolves to the same rows.
	again, err := s.EnsureTags(ctx, userID, []string{"errands", "home"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(again))
	}
	if again[0].Name != "errands" || again[0].ID != tags[1].ID {
		t.Errorf("existing tag should be reused, got %+v want ID %s", again[0], tags[1].ID)
	}
	if again[1].Name != "home" {
		t.Errorf("new tag missing, got %+v", again[1])
	}

	all, err := s.ListTags(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 distinct tags, got %d", len(all))
	}
}

func TestEnsureTagsScopedToUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := newTestUser(t, s)
	bob := newTestUser(t, s)

	aliceTags, err := s.EnsureTags(ctx, alice, []string{"work"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	bobTags, err := s.EnsureTags(ctx, bob, []string{"work"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if aliceTags[0].ID == bobTags[0].ID {
		t.Error("same name for different users must produce distinct tags")
	}
}

func TestEnsureTagsEmptyInput(t *testing.T) {
	s := newTestStore(t)
	userID := newTestUser(t, s)

	tags, err := s.EnsureTags(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected no tags, got %d", len(tags))
	}
}

func TestReplaceTodoTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)
	todo := newTestTodo(t, s, userID, "tagged")

	tags, err := s.EnsureTags(ctx, userID, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if err := s.ReplaceTodoTags(ctx, todo.ID, []string{tags[0].ID, tags[1].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	linked, err := s.GetTagsForTodos(ctx, []string{todo.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(linked[todo.ID]) != 2 {
		t.Fatalf("expected 2 links, got %d", len(linked[todo.ID]))
	}

	// Replacement is total: the new set fully supersedes the old one.
	if err := s.ReplaceTodoTags(ctx, todo.ID, []string{tags[2].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	linked, err = s.GetTagsForTodos(ctx, []string{todo.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(linked[todo.ID]) != 1 || linked[todo.ID][0].Name != "c" {
		t.Errorf("expected only tag c, got %+v", linked[todo.ID])
	}

	// Empty set clears all links.
	if err := s.ReplaceTodoTags(ctx, todo.ID, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	linked, err = s.GetTagsForTodos(ctx, []string{todo.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(linked[todo.ID]) != 0 {
		t.Errorf("expected no links, got %+v", linked[todo.ID])
	}
}

func TestGetTagsForTodosBatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)

	a := newTestTodo(t, s, userID, "a")
	b := newTestTodo(t, s, userID, "b")
	bare := newTestTodo(t, s, userID, "bare")

	tags, err := s.EnsureTags(ctx, userID, []string{"shared", "only-a"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := s.ReplaceTodoTags(ctx, a.ID, []string{tags[0].ID, tags[1].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceTodoTags(ctx, b.ID, []string{tags[0].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	linked, err := s.GetTagsForTodos(ctx, []string{a.ID, b.ID, bare.ID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(linked[a.ID]) != 2 {
		t.Errorf("todo a: expected 2 tags, got %d", len(linked[a.ID]))
	}
	if len(linked[b.ID]) != 1 || linked[b.ID][0].Name != "shared" {
		t.Errorf("todo b: expected shared tag, got %+v", linked[b.ID])
	}
	if _, ok := linked[bare.ID]; ok {
		t.Error("untagged todo should have no entry")
	}
}

func TestDeleteUnusedTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := newTestUser(t, s)
	todo := newTestTodo(t, s, userID, "keeper")

	tags, err := s.EnsureTags(ctx, userID, []string{"used", "orphan"})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := s.ReplaceTodoTags(ctx, todo.ID, []string{tags[0].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	removed, err := s.DeleteUnusedTags(ctx, userID)
	if err != nil {
		t.Fatalf("delete unused: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	all, err := s.ListTags(ctx, userID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].Name != "used" {
		t.Errorf("expected only used tag, got %+v", all)
	}
}
