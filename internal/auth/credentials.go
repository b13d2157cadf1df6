// Package auth protects the publishing endpoint with HTTP Basic
// authentication backed by Argon2id password hashes.
package auth

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// dummyPasswordHash is a fixed, valid Argon2id hash of an unknowable
// password. Lookup returns it for unknown usernames so the caller performs
// the exact same verification work whether or not the username exists;
// otherwise response latency would reveal which usernames are registered.
// It must stay a constant: minting a fresh hash per request would reintroduce
// the timing difference it exists to remove.
const dummyPasswordHash = "$argon2id$v=19$m=15000,t=2,p=1$gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

// Credentials is the result of a username lookup.
type Credentials struct {
	UserID       uuid.UUID
	PasswordHash string
	// Known is false when the username has no stored row. The hash is then
	// the dummy, and even a matching password must be rejected.
	Known bool
}

// CredentialStore reads stored username/password-hash pairs.
type CredentialStore struct {
	db *sql.DB
}

// NewCredentialStore creates a credential store
func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// Lookup fetches the credentials stored for username. Unknown usernames are
// not an error; they yield Known=false and the dummy hash.
func (s *CredentialStore) Lookup(ctx context.Context, username string) (Credentials, error) {
	query := `SELECT user_id, password_hash FROM users WHERE username = $1`

	var c Credentials
	err := s.db.QueryRowContext(ctx, query, username).Scan(&c.UserID, &c.PasswordHash)
	if err == sql.ErrNoRows {
		return Credentials{PasswordHash: dummyPasswordHash}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("querying stored credentials: %w", err)
	}
	c.Known = true
	return c, nil
}
