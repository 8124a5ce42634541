package store

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/gateway"
	"github.com/sakif/qaforum/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var john = model.User{ID: 1, Username: "john", Email: "john@example.com"}

// fakeAuth accepts john@example.com/password123 and rejects anything else
// the way the backend does.
type fakeAuth struct {
	mu          sync.Mutex
	loginErr    error // when set, returned by Login and Register
	profile     *model.User
	logoutCalls []string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*gateway.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if email != "john@example.com" || password != "password123" {
		return nil, apperror.FromStatus(401, "Invalid credentials")
	}
	return &gateway.AuthResult{User: john, Token: "tok-john"}, nil
}

func (f *fakeAuth) Register(_ context.Context, in model.RegisterInput) (*gateway.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &gateway.AuthResult{
		User:  model.User{ID: 2, Username: in.Username, Email: in.Email},
		Token: "tok-new",
	}, nil
}

func (f *fakeAuth) Profile(_ context.Context) (*model.User, error) {
	if f.profile == nil {
		return nil, apperror.FromStatus(401, "")
	}
	u := *f.profile
	return &u, nil
}

func (f *fakeAuth) Logout(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalls = append(f.logoutCalls, token)
}

// gatedAuth holds every Login until the test releases it. Each call
// announces itself on started and then waits for a password on its own
// release channel, so overlapping attempts can finish in any order.
type gatedAuth struct {
	fakeAuth
	started chan chan string
}

func newGatedAuth() *gatedAuth {
	return &gatedAuth{started: make(chan chan string)}
}

func (g *gatedAuth) Login(ctx context.Context, email, _ string) (*gateway.AuthResult, error) {
	release := make(chan string)
	g.started <- release
	select {
	case password := <-release:
		return g.fakeAuth.Login(ctx, email, password)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fakeForum is an in-memory question/answer/notification backend.
// Set the *Err fields to make the corresponding call fail.
type fakeForum struct {
	mu            sync.Mutex
	questions     []model.Question
	answers       []model.Answer
	notifications []model.Notification
	nextID        int64

	listErr     error
	getErr      error
	answersErr  error
	createErr   error
	voteErr     error
	acceptErr   error
	notifyErr   error
	voteCalls   int
	acceptCalls int
	acceptedOn  int64

	// omitQuestionID drops questionId from listed answers, as some
	// backends do.
	omitQuestionID bool
}

func newFakeForum() *fakeForum {
	return &fakeForum{nextID: 100}
}

func (f *fakeForum) ListQuestions(context.Context) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Question{}, f.questions...), nil
}

func (f *fakeForum) GetQuestion(_ context.Context, id int64) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, q := range f.questions {
		if q.ID == id {
			return &q, nil
		}
	}
	return nil, apperror.FromStatus(404, "Question not found")
}

func (f *fakeForum) CreateQuestion(_ context.Context, in model.QuestionInput) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	q := model.Question{ID: f.nextID, Title: in.Title, Description: in.Description, Tags: in.Tags, Author: john}
	f.questions = append(f.questions, q)
	return &q, nil
}

func (f *fakeForum) UpdateQuestion(_ context.Context, id int64, in model.QuestionInput) (*model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.questions {
		if f.questions[i].ID == id {
			f.questions[i].Title = in.Title
			f.questions[i].Description = in.Description
			f.questions[i].Tags = in.Tags
			q := f.questions[i]
			return &q, nil
		}
	}
	return nil, apperror.FromStatus(404, "Question not found")
}

func (f *fakeForum) DeleteQuestion(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.questions {
		if f.questions[i].ID == id {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return apperror.FromStatus(404, "Question not found")
}

func (f *fakeForum) VoteQuestion(context.Context, int64, model.VoteType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voteCalls++
	return f.voteErr
}

func (f *fakeForum) AcceptAnswer(_ context.Context, questionID, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acceptCalls++
	f.acceptedOn = questionID
	return f.acceptErr
}

func (f *fakeForum) ListAnswers(_ context.Context, questionID int64) ([]model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.answersErr != nil {
		return nil, f.answersErr
	}
	out := []model.Answer{}
	for _, a := range f.answers {
		if a.QuestionID == questionID {
			if f.omitQuestionID {
				a.QuestionID = 0
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// CreateAnswer answers without QuestionID or Author, so the store has to
// fill them in.
func (f *fakeForum) CreateAnswer(_ context.Context, _ int64, content string) (*model.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	return &model.Answer{ID: f.nextID, Content: content}, nil
}

func (f *fakeForum) UpdateAnswer(_ context.Context, id int64, content string) (*model.Answer, error) {
	return &model.Answer{ID: id, Content: content}, nil
}

func (f *fakeForum) DeleteAnswer(context.Context, int64) error {
	return nil
}

func (f *fakeForum) VoteAnswer(context.Context, int64, model.VoteType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voteCalls++
	return f.voteErr
}

func (f *fakeForum) ListNotifications(_ context.Context, userID int64) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return nil, f.notifyErr
	}
	out := []model.Notification{}
	for _, n := range f.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeForum) MarkNotificationRead(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifyErr
}

func (f *fakeForum) MarkAllNotificationsRead(context.Context, int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notifyErr
}

func (f *fakeForum) setErr(target *error, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*target = err
}
