// Package subscriptions implements signup and confirmation for the mailing
// list: the transactional subscriber+token insert and the one-way status
// transition to confirmed.
package subscriptions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/newsletter/internal/domain"
)

// Store provides database operations for subscribers and their
// confirmation tokens.
type Store struct {
	db *sql.DB
}

// NewStore creates a new subscriptions store
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// BeginTx opens a transaction scoped to one pooled connection. Callers must
// Commit or Rollback on every exit path to release it.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// InsertSubscriber inserts one pending subscriber inside tx and returns its
// server-generated id.
func (s *Store) InsertSubscriber(ctx context.Context, tx *sql.Tx, sub domain.NewSubscriber) (uuid.UUID, error) {
	id := uuid.New()

	query := `INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := tx.ExecContext(ctx, query,
		id, sub.Email.String(), sub.Name.String(), time.Now().UTC(), string(domain.SubscriberPending))
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting subscriber: %w", err)
	}
	return id, nil
}

// StoreToken binds a confirmation token to a subscriber inside tx. It is
// always called in the same transaction as InsertSubscriber so the pair
// commits as one unit: no subscriber without a token, no orphan token.
func (s *Store) StoreToken(ctx context.Context, tx *sql.Tx, subscriberID uuid.UUID, token string) error {
	query := `INSERT INTO subscription_tokens (subscription_token, subscriber_id)
		VALUES ($1, $2)`

	if _, err := tx.ExecContext(ctx, query, token, subscriberID); err != nil {
		return fmt.Errorf("storing subscription token: %w", err)
	}
	return nil
}

// SubscriberIDFromToken resolves a confirmation token to its subscriber id.
// An unknown token is not an error; it yields found=false.
func (s *Store) SubscriberIDFromToken(ctx context.Context, token string) (uuid.UUID, bool, error) {
	query := `SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $1`

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, token).Scan(&id)
	if err == sql.ErrNoRows {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("querying subscription token: %w", err)
	}
	return id, true, nil
}

// ConfirmSubscriber marks a subscriber confirmed. Confirming an
// already-confirmed subscriber is a harmless no-op.
func (s *Store) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	query := `UPDATE subscriptions SET status = $1 WHERE id = $2`

	if _, err := s.db.ExecContext(ctx, query, string(domain.SubscriberConfirmed), subscriberID); err != nil {
		return fmt.Errorf("updating subscriber status: %w", err)
	}
	return nil
}

// ConfirmedSubscriberEmails returns the stored email of every confirmed
// subscriber, unvalidated; callers re-parse each row.
func (s *Store) ConfirmedSubscriberEmails(ctx context.Context) ([]string, error) {
	query := `SELECT email FROM subscriptions WHERE status = $1`

	rows, err := s.db.QueryContext(ctx, query, string(domain.SubscriberConfirmed))
	if err != nil {
		return nil, fmt.Errorf("querying confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scanning subscriber row: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
