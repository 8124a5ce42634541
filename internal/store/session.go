// Package store holds the client-side application state: the session, the
// question/answer cache and the notification feed.
//
// THE STORE PATTERN:
// Each store is an explicit value built by a constructor with its remote
// gateway injected, not a process-wide singleton. Tests create one per case.
//
//	UI event → store method → (gateway call) → reconcile cached state
//
// CONCURRENCY:
// Store methods may be called from any goroutine. Each store guards its
// state with a mutex. Network calls run outside the lock and the cache is
// mutated under the lock once the response is in, so a reader never observes
// a half-applied reconcile. Accessors return copies.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/qaforum/internal/apperror"
	"github.com/sakif/qaforum/internal/gateway"
	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// AuthGateway is the part of the remote gateway the session store uses.
type AuthGateway interface {
	Login(ctx context.Context, email, password string) (*gateway.AuthResult, error)
	Register(ctx context.Context, in model.RegisterInput) (*gateway.AuthResult, error)
	Profile(ctx context.Context) (*model.User, error)
	Logout(token string)
}

// Result is the outcome of login and register. These never return a bare
// error: failures come back as Success == false with a human-readable Error
// and the classified cause in Err.
type Result struct {
	Success bool
	Error   string
	Err     error
}

func failed(err error, fallback string) Result {
	return Result{Error: apperror.MessageOf(err, fallback), Err: err}
}

// SessionStore owns the authenticated identity and its durable copy.
//
// STATE MACHINE:
//
//	ANONYMOUS ──login/register──▶ AUTHENTICATING ──ok──▶ AUTHENTICATED
//	    ▲                              │                       │
//	    └────────────failure───────────┘                       │
//	    └────────────────────────logout────────────────────────┘
//
// The store implements gateway.CredentialSource so the gateway can attach
// the bearer token to every request without the other stores knowing.
//
// state only ever holds a settled value, ANONYMOUS or AUTHENTICATED.
// AUTHENTICATING is derived from pending, the number of attempts in flight,
// so overlapping attempts settle on whichever outcome lands last.
type SessionStore struct {
	mu      sync.RWMutex
	state   model.SessionState
	pending int
	user    *model.User
	token   string

	remote AuthGateway
	repo   repository.SessionRepository
	logger *slog.Logger
}

var _ gateway.CredentialSource = (*SessionStore)(nil)

// NewSessionStore creates an anonymous session store.
func NewSessionStore(remote AuthGateway, repo repository.SessionRepository, logger *slog.Logger) *SessionStore {
	return &SessionStore{
		state:  model.StateAnonymous,
		remote: remote,
		repo:   repo,
		logger: logger,
	}
}

// Initialize restores a persisted session. When both the credential and the
// user are present the store becomes AUTHENTICATED without asking the
// backend; the local copy is trusted as-is. It makes no network call and
// calling it again is harmless. A storage failure leaves the store anonymous.
func (s *SessionStore) Initialize(ctx context.Context) error {
	persisted, err := s.repo.Load(ctx)
	if err != nil {
		s.logger.Warn("could not restore session", slog.String("error", err.Error()))
		return fmt.Errorf("restoring session: %w", err)
	}
	if persisted == nil || persisted.Token == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// A login that is already in flight owns the state.
	if s.pending > 0 {
		return nil
	}

	user := persisted.User
	s.user = &user
	s.token = persisted.Token
	s.state = model.StateAuthenticated

	s.logger.Info("session restored", slog.Int64("userID", user.ID))
	return nil
}

// Login authenticates with email and password.
func (s *SessionStore) Login(ctx context.Context, email, password string) Result {
	return s.authenticate(ctx, "login", func(ctx context.Context) (*gateway.AuthResult, error) {
		return s.remote.Login(ctx, email, password)
	})
}

// Register creates an account and signs it in. Same contract as Login.
func (s *SessionStore) Register(ctx context.Context, in model.RegisterInput) Result {
	return s.authenticate(ctx, "register", func(ctx context.Context) (*gateway.AuthResult, error) {
		return s.remote.Register(ctx, in)
	})
}

// authenticate runs the shared login/register flow. The session is only
// published in memory after it has been persisted, so a restart can never
// show a different identity than the running process did. A failed attempt
// leaves the settled session untouched: anonymous stays anonymous and an
// existing session keeps working.
func (s *SessionStore) authenticate(
	ctx context.Context,
	op string,
	call func(context.Context) (*gateway.AuthResult, error),
) Result {
	s.mu.Lock()
	s.pending++
	s.mu.Unlock()

	settle := func() {
		s.mu.Lock()
		s.pending--
		s.mu.Unlock()
	}

	res, err := call(ctx)
	if err != nil {
		settle()
		s.logger.Info(op+" failed",
			slog.String("kind", string(apperror.KindOf(err))),
			slog.String("error", err.Error()),
		)
		return failed(err, op+" failed")
	}
	if res == nil || res.Token == "" {
		settle()
		err := apperror.Unknown("the server returned no credential", errors.New(op))
		return failed(err, "")
	}

	if err := s.repo.Save(ctx, model.PersistedSession{Token: res.Token, User: res.User}); err != nil {
		settle()
		s.logger.Error("could not persist session", slog.String("error", err.Error()))
		return failed(err, "could not save session")
	}

	user := res.User
	s.mu.Lock()
	s.pending--
	s.user = &user
	s.token = res.Token
	s.state = model.StateAuthenticated
	s.mu.Unlock()

	s.logger.Info(op+" succeeded", slog.Int64("userID", user.ID))
	return Result{Success: true}
}

// Logout ends the session. Memory is cleared first and unconditionally; the
// returned error only reports a failure to clear durable storage. The
// backend is notified in the background, with no retry.
func (s *SessionStore) Logout(ctx context.Context) error {
	s.mu.Lock()
	token := s.token
	s.user, s.token = nil, ""
	s.state = model.StateAnonymous
	s.mu.Unlock()

	s.remote.Logout(token)

	if err := s.repo.Clear(ctx); err != nil {
		s.logger.Error("could not clear persisted session", slog.String("error", err.Error()))
		return fmt.Errorf("clearing session: %w", err)
	}

	s.logger.Info("logged out")
	return nil
}

// UpdateUser shallow-merges patch into the cached user and re-persists it.
// This is a local profile cache update; nothing is sent to the backend.
func (s *SessionStore) UpdateUser(ctx context.Context, patch model.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return apperror.Unauthorized("no user is signed in")
	}

	merged := patch.Apply(*s.user)
	if err := s.repo.Save(ctx, model.PersistedSession{Token: s.token, User: merged}); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	s.user = &merged
	return nil
}

// RefreshProfile replaces the cached user with the backend's copy
// (GET /auth/profile) and re-persists it.
func (s *SessionStore) RefreshProfile(ctx context.Context) error {
	if err := s.Require(); err != nil {
		return err
	}

	user, err := s.remote.Profile(ctx)
	if err != nil {
		return fmt.Errorf("refreshing profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the session may have ended while the request was in flight
	if s.state != model.StateAuthenticated {
		return apperror.Unauthorized("session ended during refresh")
	}
	if err := s.repo.Save(ctx, model.PersistedSession{Token: s.token, User: *user}); err != nil {
		return fmt.Errorf("saving user: %w", err)
	}
	s.user = user
	return nil
}

// Require is the mutation gate. It returns an unauthorized AppError unless
// a session is active.
func (s *SessionStore) Require() error {
	if !s.Authenticated() {
		return apperror.Unauthorized("you must be logged in to do that")
	}
	return nil
}

// Credential implements gateway.CredentialSource.
func (s *SessionStore) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.state == model.StateAuthenticated && s.token != ""
}

// Session returns a snapshot of the current session.
func (s *SessionStore) Session() model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != model.StateAuthenticated {
		return model.NewSession(nil, "")
	}
	u := *s.user
	return model.NewSession(&u, s.token)
}

// User returns the signed-in user, if any.
func (s *SessionStore) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || s.state != model.StateAuthenticated {
		return model.User{}, false
	}
	return *s.user, true
}

// State reports AUTHENTICATING while an attempt is in flight from an
// anonymous session. A re-login from an active session stays AUTHENTICATED.
func (s *SessionStore) State() model.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending > 0 && s.state != model.StateAuthenticated {
		return model.StateAuthenticating
	}
	return s.state
}

func (s *SessionStore) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == model.StateAuthenticated
}
