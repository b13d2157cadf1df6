package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/mailer"
	"github.com/ignite/newsletter/internal/token"
)

// ErrUnknownToken is returned by Confirm when no subscriber is bound to the
// presented token. Handlers map it to a 401.
var ErrUnknownToken = errors.New("no subscriber is associated with the provided token")

// Service implements the subscription registrar and confirmation processor.
type Service struct {
	store   *Store
	mailer  mailer.Mailer
	baseURL string
}

// NewService creates a subscriptions service. baseURL is the externally
// visible address used to build confirmation links.
func NewService(store *Store, m mailer.Mailer, baseURL string) *Service {
	return &Service{store: store, mailer: m, baseURL: baseURL}
}

// Subscribe validates the signup input, persists the subscriber and a fresh
// confirmation token in one transaction, and then emails the confirmation
// link. Validation failures return *domain.ValidationError before any
// persistence happens.
//
// If the email send fails after commit the subscriber row remains pending;
// the caller still sees a failure. That inconsistency is accepted: rolling
// back a committed signup because of a transport hiccup would be worse.
func (s *Service) Subscribe(ctx context.Context, email, name string) error {
	sub, err := domain.ParseNewSubscriber(email, name)
	if err != nil {
		return err
	}

	tok, err := token.Generate()
	if err != nil {
		return fmt.Errorf("generating confirmation token: %w", err)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// Rollback is a no-op once the transaction has committed.
	defer tx.Rollback()

	subscriberID, err := s.store.InsertSubscriber(ctx, tx, sub)
	if err != nil {
		return err
	}
	if err := s.store.StoreToken(ctx, tx, subscriberID, tok); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing subscription transaction: %w", err)
	}

	log.Printf("[subscriptions] new pending subscriber %s", subscriberID)

	if err := s.sendConfirmationEmail(ctx, sub, tok); err != nil {
		return fmt.Errorf("sending confirmation email: %w", err)
	}
	return nil
}

func (s *Service) sendConfirmationEmail(ctx context.Context, sub domain.NewSubscriber, tok string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?token=%s", s.baseURL, tok)

	htmlBody := fmt.Sprintf(
		`Welcome to our newsletter!<br />Click <a href="%s">here</a> to confirm your subscription.`, link)
	textBody := fmt.Sprintf(
		"Welcome to our newsletter!\nVisit %s to confirm your subscription.", link)

	return s.mailer.Send(ctx, sub.Email.String(), "Welcome!", htmlBody, textBody)
}

// Confirm resolves a token and flips the bound subscriber to confirmed.
// Unknown tokens return ErrUnknownToken and never mutate anything; repeating
// a valid token reports success both times.
func (s *Service) Confirm(ctx context.Context, tok string) error {
	subscriberID, found, err := s.store.SubscriberIDFromToken(ctx, tok)
	if err != nil {
		return fmt.Errorf("retrieving subscriber for token: %w", err)
	}
	if !found {
		return ErrUnknownToken
	}

	if err := s.store.ConfirmSubscriber(ctx, subscriberID); err != nil {
		return fmt.Errorf("confirming subscriber %s: %w", subscriberID, err)
	}

	log.Printf("[subscriptions] subscriber %s confirmed", subscriberID)
	return nil
}
