// Package newsletter delivers published issues to confirmed subscribers.
package newsletter

import (
	"context"
	"fmt"
	"log"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/mailer"
)

// SubscriberSource yields the stored emails of confirmed subscribers.
type SubscriberSource interface {
	ConfirmedSubscriberEmails(ctx context.Context) ([]string, error)
}

// Issue is one newsletter edition as submitted for publishing.
type Issue struct {
	Title   string  `json:"title"`
	Content Content `json:"content"`
}

// Content carries both renderings of the issue body.
type Content struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

// Service fans a published issue out to every confirmed subscriber.
type Service struct {
	subscribers SubscriberSource
	mailer      mailer.Mailer
}

// NewService creates a newsletter fan-out service
func NewService(subscribers SubscriberSource, m mailer.Mailer) *Service {
	return &Service{subscribers: subscribers, mailer: m}
}

// Publish sends issue to each confirmed subscriber and returns how many
// deliveries succeeded. A stored email that no longer parses is skipped with
// a warning; a delivery failure aborts the remaining fan-out.
func (s *Service) Publish(ctx context.Context, issue Issue) (int, error) {
	emails, err := s.subscribers.ConfirmedSubscriberEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching confirmed subscribers: %w", err)
	}

	sent := 0
	for _, raw := range emails {
		addr, err := domain.ParseEmailAddress(raw)
		if err != nil {
			// The row was valid when written; validation rules may have
			// tightened since. Skip it rather than fail the whole batch.
			log.Printf("[newsletter] skipping confirmed subscriber, stored email is invalid: %v", err)
			continue
		}

		if err := s.mailer.Send(ctx, addr.String(), issue.Title, issue.Content.HTML, issue.Content.Text); err != nil {
			return sent, fmt.Errorf("sending newsletter issue to %s: %w", addr, err)
		}
		sent++
	}

	log.Printf("[newsletter] issue %q delivered to %d subscribers", issue.Title, sent)
	return sent, nil
}
