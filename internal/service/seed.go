package service

import (
	"fmt"
	"time"

	"github.com/sakif/qaforum/internal/auth"
	"github.com/sakif/qaforum/internal/model"
)

// Seed accounts. The first one is the sample login used throughout the
// client's docs and tests.
const (
	SeedEmail    = "john@example.com"
	SeedPassword = "password123"

	seedAdminEmail    = "admin@example.com"
	seedAdminPassword = "admin12345"
)

// Seed fills empty tables with sample data: two users, a few questions with
// answers, and two unread notifications for john.
func Seed(m *Memory, passwords *auth.PasswordService) error {
	johnHash, err := passwords.Hash(SeedPassword)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	adminHash, err := passwords.Hash(seedAdminPassword)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.accounts) > 0 {
		return nil
	}

	base := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

	john := m.insertAccount(model.User{
		Username: "john",
		Email:    SeedEmail,
		Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=john",
	}, johnHash)
	admin := m.insertAccount(model.User{
		Username: "admin",
		Email:    seedAdminEmail,
		Avatar:   "https://api.dicebear.com/7.x/avataaars/svg?seed=admin",
	}, adminHash)

	center := m.insertQuestion(model.Question{
		Title:       "How to center a div in CSS?",
		Description: "<p>I have tried <code>margin: auto</code> but the div stays on the left. What is the modern way?</p>",
		Tags:        []string{"css", "html", "flexbox"},
		Votes:       5,
		Views:       42,
		Author:      john,
		CreatedAt:   base,
	})
	m.insertAnswer(model.Answer{
		QuestionID: center.ID,
		Content:    "<p>Use flexbox on the parent: <code>display: flex; justify-content: center; align-items: center;</code></p>",
		Votes:      3,
		Author:     admin,
		CreatedAt:  base.Add(2 * time.Hour),
	})
	m.insertAnswer(model.Answer{
		QuestionID: center.ID,
		Content:    "<p>Grid works too: <code>display: grid; place-items: center;</code></p>",
		Votes:      1,
		Author:     admin,
		CreatedAt:  base.Add(90 * time.Minute),
	})

	m.insertQuestion(model.Question{
		Title:       "What is the difference between let and const in JavaScript?",
		Description: "<p>When should I prefer one over the other, and does <code>const</code> make objects immutable?</p>",
		Tags:        []string{"javascript", "es6"},
		Votes:       2,
		Views:       17,
		Author:      admin,
		CreatedAt:   base.Add(-24 * time.Hour),
	})

	m.insertQuestion(model.Question{
		Title:       "How do I read a file line by line in Go?",
		Description: "<p>I want to process a large log file without loading it all into memory.</p>",
		Tags:        []string{"go", "io"},
		Author:      john,
		CreatedAt:   base.Add(-48 * time.Hour),
	})

	m.notify(model.Notification{
		UserID:    john.ID,
		Type:      "answer",
		Title:     "New answer on your question",
		Message:   `admin answered your question "How to center a div in CSS?"`,
		CreatedAt: base.Add(2 * time.Hour),
		RelatedID: center.ID,
	})
	m.notify(model.Notification{
		UserID:    john.ID,
		Type:      "mention",
		Title:     "You were mentioned",
		Message:   "admin mentioned you in a comment",
		CreatedAt: base.Add(105 * time.Minute),
		RelatedID: 2,
	})

	return nil
}
