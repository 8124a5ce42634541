// Package service contains the business logic of the forum backend that
// the client talks to in development and end-to-end tests.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes envelopes
//	Service (business layer) → validates, enforces ownership, orchestrates
//	Memory  (data layer)     → the in-process tables, guarded by one mutex
//
// Services accept primitives and model types, never *http.Request, and
// return apperror values that the handler layer maps to HTTP statuses.
package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/qaforum/internal/model"
)

// account is a user plus the credential the backend never returns.
type account struct {
	user model.User
	hash string
}

// Memory holds the backend's tables. All access goes through mu.
type Memory struct {
	mu sync.Mutex

	accounts      map[int64]*account
	questions     map[int64]*model.Question
	answers       map[int64]*model.Answer
	notifications map[int64]*model.Notification

	nextUserID         int64
	nextQuestionID     int64
	nextAnswerID       int64
	nextNotificationID int64

	now func() time.Time
}

// NewMemory creates empty tables.
func NewMemory() *Memory {
	return &Memory{
		accounts:      make(map[int64]*account),
		questions:     make(map[int64]*model.Question),
		answers:       make(map[int64]*model.Answer),
		notifications: make(map[int64]*model.Notification),
		now:           time.Now,
	}
}

// accountByEmail must be called with m.mu held.
func (m *Memory) accountByEmail(email string) *account {
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Email, email) {
			return a
		}
	}
	return nil
}

// usernameTaken must be called with m.mu held.
func (m *Memory) usernameTaken(username string) bool {
	for _, a := range m.accounts {
		if strings.EqualFold(a.user.Username, username) {
			return true
		}
	}
	return false
}

// insertAccount must be called with m.mu held.
func (m *Memory) insertAccount(u model.User, hash string) model.User {
	m.nextUserID++
	u.ID = m.nextUserID
	m.accounts[u.ID] = &account{user: u, hash: hash}
	return u
}

// insertQuestion must be called with m.mu held.
func (m *Memory) insertQuestion(q model.Question) model.Question {
	m.nextQuestionID++
	q.ID = m.nextQuestionID
	if q.CreatedAt.IsZero() {
		q.CreatedAt = m.now()
	}
	m.questions[q.ID] = &q
	return q.Clone()
}

// insertAnswer must be called with m.mu held.
func (m *Memory) insertAnswer(a model.Answer) model.Answer {
	m.nextAnswerID++
	a.ID = m.nextAnswerID
	if a.CreatedAt.IsZero() {
		a.CreatedAt = m.now()
	}
	m.answers[a.ID] = &a
	if q, ok := m.questions[a.QuestionID]; ok {
		q.AnswerCount++
	}
	return a
}

// notify must be called with m.mu held.
func (m *Memory) notify(n model.Notification) {
	m.nextNotificationID++
	n.ID = m.nextNotificationID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = m.now()
	}
	m.notifications[n.ID] = &n
}

// sortedQuestions returns copies, newest first. Must be called with m.mu held.
func (m *Memory) sortedQuestions() []model.Question {
	out := make([]model.Question, 0, len(m.questions))
	for _, q := range m.questions {
		out = append(out, q.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// answersOf returns copies in posting order. Must be called with m.mu held.
func (m *Memory) answersOf(questionID int64) []model.Answer {
	out := []model.Answer{}
	for _, a := range m.answers {
		if a.QuestionID == questionID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// notificationsOf returns copies, newest first. Must be called with m.mu held.
func (m *Memory) notificationsOf(userID int64) []model.Notification {
	out := []model.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
