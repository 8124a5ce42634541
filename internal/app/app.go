// Package app is the client's composition root. It opens the durable session
// repository, builds the gateway, and hands the gateway to the three stores.
//
// DEPENDENCY FLOW:
//
//	config.Client ──▶ sqlite.DB (SessionRepository)
//	              ──▶ gateway.Client ◀── credential ── SessionStore
//	                        │
//	                        ├──▶ SessionStore
//	                        ├──▶ QuestionStore
//	                        └──▶ NotificationStore
//
// The gateway needs the session for its bearer token and the session needs
// the gateway to log in, so the gateway reads the token through a closure
// that is bound once the session store exists.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/config"
	"github.com/sakif/qaforum/internal/form"
	"github.com/sakif/qaforum/internal/gateway"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
	"github.com/sakif/qaforum/internal/repository/sqlite"
	"github.com/sakif/qaforum/internal/store"
)

// App bundles the stores a presentation layer works against.
type App struct {
	Session       *store.SessionStore
	Questions     *store.QuestionStore
	Notifications *store.NotificationStore

	gateway *gateway.Client
	db      *sqlite.DB // nil when a repository was injected
	logger  *slog.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	transport  http.RoundTripper
	registerer prometheus.Registerer
	repo       repository.SessionRepository
}

// WithTransport sets the gateway's round tripper. Tests pass an
// httptest server's transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithRegisterer registers the gateway metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithSessionRepository replaces the sqlite session file.
func WithSessionRepository(repo repository.SessionRepository) Option {
	return func(o *options) { o.repo = repo }
}

// New wires the client. Call Start to restore a persisted session and Close
// when done.
func New(cfg config.Client, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{logger: logger}

	repo := o.repo
	if repo == nil {
		if dir := filepath.Dir(cfg.SessionDBPath); dir != "." && cfg.SessionDBPath != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating session directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.SessionDBPath)
		if err != nil {
			return nil, fmt.Errorf("opening session database: %w", err)
		}
		a.db = db
		repo = db
	}

	var session *store.SessionStore
	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Credentials: gateway.CredentialFunc(func() (string, bool) {
			if session == nil {
				return "", false
			}
			return session.Credential()
		}),
		Transport:  o.transport,
		Registerer: o.registerer,
	}, logger)
	if err != nil {
		a.closeDB()
		return nil, fmt.Errorf("creating gateway: %w", err)
	}
	session = store.NewSessionStore(gw, repo, logger)

	a.gateway = gw
	a.Session = session
	a.Questions = store.NewQuestionStore(gw, logger)
	a.Notifications = store.NewNotificationStore(gw, logger)
	return a, nil
}

// Start restores the persisted session and, when one exists, loads the
// user's notification feed. A feed failure is recorded on the store and does
// not fail Start.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Initialize(ctx); err != nil {
		return err
	}
	if user, ok := a.Session.User(); ok {
		_ = a.Notifications.FetchNotifications(ctx, user.ID)
	}
	return nil
}

// Ask validates in and posts it as the signed-in user.
func (a *App) Ask(ctx context.Context, in model.QuestionInput) (*model.Question, error) {
	if err := a.Session.Require(); err != nil {
		return nil, err
	}
	in, err := form.Question(in)
	if err != nil {
		return nil, err
	}
	return a.Questions.CreateQuestion(ctx, in)
}

// Answer validates content and posts it on questionID as the signed-in user.
func (a *App) Answer(ctx context.Context, questionID int64, content string) (*model.Answer, error) {
	if err := a.Session.Require(); err != nil {
		return nil, err
	}
	user, _ := a.Session.User()
	in, err := form.Answer(model.AnswerInput{QuestionID: questionID, Content: content, Author: user})
	if err != nil {
		return nil, err
	}
	return a.Questions.CreateAnswer(ctx, in)
}

// Logout ends the session and drops the previous user's feed.
func (a *App) Logout(ctx context.Context) error {
	err := a.Session.Logout(ctx)
	a.Notifications.Reset()
	return err
}

// RefreshNotifications reloads the signed-in user's feed.
func (a *App) RefreshNotifications(ctx context.Context) error {
	user, ok := a.Session.User()
	if !ok {
		return apperror.Unauthorized("you must be logged in to do that")
	}
	return a.Notifications.FetchNotifications(ctx, user.ID)
}

// ServerUnreadCount asks the backend for the signed-in user's unread count.
// A count that disagrees with the cached feed means the feed is stale; that
// is logged and returned for the caller to act on.
func (a *App) ServerUnreadCount(ctx context.Context) (int, error) {
	user, ok := a.Session.User()
	if !ok {
		return 0, apperror.Unauthorized("you must be logged in to do that")
	}
	n, err := a.gateway.UnreadCount(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if cached := a.Notifications.UnreadCount(); cached != n {
		a.logger.Warn("unread count out of sync",
			slog.Int("cached", cached),
			slog.Int("server", n),
		)
	}
	return n, nil
}

// Close waits for background gateway calls and closes the session database.
func (a *App) Close() error {
	a.gateway.Close()
	return a.closeDB()
}

func (a *App) closeDB() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	if err != nil {
		return fmt.Errorf("closing session database: %w", err)
	}
	return nil
}
