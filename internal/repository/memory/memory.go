// Package memory is an in-process SessionRepository for tests and for
// callers that do not want the session to outlive the process.
package memory

import (
	"context"
	"sync"

	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo keeps the persisted session in a struct field.
// The zero value is ready to use.
type SessionRepo struct {
	mu      sync.Mutex
	session *model.PersistedSession

	// SaveErr and LoadErr, when set, are returned by Save and Load to
	// simulate a storage failure.
	SaveErr error
	LoadErr error
}

func (r *SessionRepo) Load(_ context.Context) (*model.PersistedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	if r.session == nil {
		return nil, nil
	}
	cp := *r.session
	return &cp, nil
}

func (r *SessionRepo) Save(_ context.Context, s model.PersistedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.session = &s
	return nil
}

func (r *SessionRepo) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.session = nil
	return nil
}
