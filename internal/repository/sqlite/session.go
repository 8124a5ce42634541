package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/qaforum/internal/model"
	"github.com/sakif/qaforum/internal/repository"
)

// compile-time check that *DB implements repository.SessionRepository
var _ repository.SessionRepository = (*DB)(nil)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Load reads the token and the serialized user.
// If either key is missing the session is treated as absent.
func (db *DB) Load(ctx context.Context) (*model.PersistedSession, error) {
	token, err := db.get(ctx, keyToken)
	if err != nil {
		return nil, err
	}
	rawUser, err := db.get(ctx, keyUser)
	if err != nil {
		return nil, err
	}
	if token == "" || rawUser == "" {
		return nil, nil
	}

	var user model.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, fmt.Errorf("sqlite: decoding persisted user: %w", err)
	}

	return &model.PersistedSession{Token: token, User: user}, nil
}

// Save writes both keys in one transaction so a crash can never leave a
// token without its user (or the reverse).
func (db *DB) Save(ctx context.Context, s model.PersistedSession) error {
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("sqlite: encoding user: %w", err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning session save: %w", err)
	}
	// Rollback after a successful Commit is a no-op, so this is safe to defer.
	defer tx.Rollback()

	now := time.Now()
	for key, value := range map[string]string{keyToken: s.Token, keyUser: string(rawUser)} {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		)
		if err != nil {
			return fmt.Errorf("sqlite: saving %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing session save: %w", err)
	}
	return nil
}

// Clear deletes both keys.
func (db *DB) Clear(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM kv WHERE key IN (?, ?)`, keyToken, keyUser,
	)
	if err != nil {
		return fmt.Errorf("sqlite: clearing session: %w", err)
	}
	return nil
}

func (db *DB) get(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("sqlite: reading %s: %w", key, err)
	}
	return value, nil
}
