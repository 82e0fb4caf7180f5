// Package main provides a tool to seed the database with test todo data.
//
// This creates a demo user (if missing) and fills their board with todos,
// tags, and subtasks to exercise filtering, hydration, and the client SDK
// against realistic data.
//
// Usage:
//
//	DB_PATH=~/.doable/doable.db go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/doableapp/doable-server/internal/auth"
	"github.com/doableapp/doable-server/internal/domain"
	"github.com/doableapp/doable-server/internal/id"
	"github.com/doableapp/doable-server/internal/store/sqlite"
	"github.com/doableapp/doable-server/internal/util"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "demopass123"
)

// seedTodos are the fixtures loaded for the demo user. Tag names are
// deliberately messy to exercise normalization.
var seedTodos = []struct {
	title    string
	priority domain.Priority
	dueDays  int // days from now; 0 means no due date
	done     bool
	tags     []string
	subtasks []string
}{
	{
		title:    "Buy groceries",
		priority: domain.PriorityMedium,
		dueDays:  1,
		tags:     []string{"Errands", " errands "},
		subtasks: []string{"Make a list", "Check the fridge"},
	},
	{
		title:    "Prepare quarterly review",
		priority: domain.PriorityHigh,
		dueDays:  3,
		tags:     []string{"Work", "writing"},
		subtasks: []string{"Collect metrics", "Draft slides", "Dry run"},
	},
	{
		title:    "Renew gym membership",
		priority: domain.PriorityLow,
		tags:     []string{"health"},
	},
	{
		title:    "File expense report",
		priority: domain.PriorityMedium,
		done:     true,
		tags:     []string{"work"},
	},
	{
		title:    "Plan weekend trip",
		priority: domain.PriorityLow,
		dueDays:  7,
		tags:     []string{"Travel", "fun"},
		subtasks: []string{"Pick a destination", "Book a room"},
	},
}

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/.doable/doable.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	user, err := ensureDemoUser(ctx, s)
	if err != nil {
		log.Fatalf("Failed to create demo user: %v", err)
	}
	fmt.Printf("Seeding data for user: %s (%s)\n", user.Email, user.ID)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := time.Now()
	created := 0

	for _, fixture := range seedTodos {
		todoID := id.MustGenerate("todo")

		// Spread creation times over the past week so newest-first
		// ordering is visible.
		createdAt := now.Add(-time.Duration(rng.Intn(7*24)) * time.Hour)

		todo := &domain.Todo{
			ID:          todoID,
			UserID:      user.ID,
			Title:       fixture.title,
			IsCompleted: fixture.done,
			Priority:    fixture.priority,
			CreatedAt:   createdAt,
			UpdatedAt:   createdAt,
		}
		if fixture.dueDays > 0 {
			due := now.AddDate(0, 0, fixture.dueDays)
			todo.DueAt = &due
		}

		if err := s.CreateTodo(ctx, todo); err != nil {
			log.Printf("Failed to create todo %q: %v", fixture.title, err)
			continue
		}

		if names := util.NormalizeTagNames(fixture.tags); len(names) > 0 {
			tags, err := s.EnsureTags(ctx, user.ID, names)
			if err != nil {
				log.Printf("Failed to ensure tags for %q: %v", fixture.title, err)
				continue
			}
			tagIDs := make([]string, len(tags))
			for i, tag := range tags {
				tagIDs[i] = tag.ID
			}
			if err := s.ReplaceTodoTags(ctx, todoID, tagIDs); err != nil {
				log.Printf("Failed to link tags for %q: %v", fixture.title, err)
			}
		}

		for j, title := range fixture.subtasks {
			// Stagger subtask creation so ascending order is visible.
			stAt := createdAt.Add(time.Duration(j+1) * time.Minute)
			subtask := &domain.Subtask{
				ID:        id.MustGenerate("sub"),
				TodoID:    todoID,
				UserID:    user.ID,
				Title:     title,
				CreatedAt: stAt,
				UpdatedAt: stAt,
			}
			if err := s.CreateSubtask(ctx, subtask); err != nil {
				log.Printf("Failed to create subtask %q: %v", title, err)
			}
		}

		created++
		fmt.Printf("  Created: %s (%d subtasks, %d tags)\n", fixture.title, len(fixture.subtasks), len(fixture.tags))
	}

	fmt.Printf("\nSeeding complete: %d todos. Log in as %s / %s\n", created, demoEmail, demoPassword)
}

// ensureDemoUser returns the demo user, creating it on first run.
func ensureDemoUser(ctx context.Context, s *sqlite.Store) (*domain.User, error) {
	if existing, err := s.GetUserByEmail(ctx, demoEmail); err == nil {
		return existing, nil
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           id.MustGenerate("user"),
		Email:        demoEmail,
		PasswordHash: hash,
		DisplayName:  "Demo User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	fmt.Printf("Created demo user: %s\n", demoEmail)
	return user, nil
}
