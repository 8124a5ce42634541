// Package repository declares the persistence boundaries of the client.
//
// The session store depends on SessionRepository, not on any storage engine.
// Production wiring uses the sqlite implementation; tests use memory.
package repository

import (
	"context"

	"github.com/sakif/qaforum/internal/model"
)

// SessionRepository is durable client-side storage for the credential and
// the serialized user. It replaces ad hoc key-value calls scattered across
// the session store with three operations.
type SessionRepository interface {
	// Load returns the persisted session, or (nil, nil) when nothing is stored
	// or only one of the two parts is present.
	Load(ctx context.Context) (*model.PersistedSession, error)
	// Save replaces both parts atomically.
	Save(ctx context.Context, s model.PersistedSession) error
	// Clear removes both parts. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
