package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	// SubscriberPending is the state of a fresh signup waiting on its
	// confirmation link.
	SubscriberPending SubscriberStatus = "pending_confirmation"
	// SubscriberConfirmed is terminal; no path leads out of it.
	SubscriberConfirmed SubscriberStatus = "confirmed"
)

// Subscriber represents a single mailing-list recipient as stored.
type Subscriber struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Email        EmailAddress     `json:"email" db:"email"`
	Name         SubscriberName   `json:"name" db:"name"`
	Status       SubscriberStatus `json:"status" db:"status"`
	SubscribedAt time.Time        `json:"subscribed_at" db:"subscribed_at"`
}

// NewSubscriber holds validated signup input before it is persisted.
type NewSubscriber struct {
	Email EmailAddress
	Name  SubscriberName
}

// ParseNewSubscriber validates raw signup form input into a NewSubscriber.
func ParseNewSubscriber(email, name string) (NewSubscriber, error) {
	addr, err := ParseEmailAddress(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	n, err := ParseSubscriberName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Email: addr, Name: n}, nil
}

// ValidationError reports malformed client input. Handlers map it to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// EmailAddress is an email string that has passed validation.
type EmailAddress string

// ParseEmailAddress validates the structural shape of an email address.
func ParseEmailAddress(s string) (EmailAddress, error) {
	if len(s) < 3 || len(s) > 254 {
		return "", &ValidationError{Field: "email", Reason: "must be between 3 and 254 characters"}
	}
	if strings.ContainsAny(s, " \t\r\n") {
		return "", &ValidationError{Field: "email", Reason: "must not contain whitespace"}
	}

	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return "", &ValidationError{Field: "email", Reason: "must contain exactly one @"}
	}

	local, host := parts[0], parts[1]
	if len(local) == 0 || len(local) > 64 {
		return "", &ValidationError{Field: "email", Reason: "local part must be between 1 and 64 characters"}
	}
	if len(host) == 0 || len(host) > 253 {
		return "", &ValidationError{Field: "email", Reason: "domain must be between 1 and 253 characters"}
	}
	if !strings.Contains(host, ".") {
		return "", &ValidationError{Field: "email", Reason: "domain must contain a dot"}
	}

	return EmailAddress(s), nil
}

func (e EmailAddress) String() string { return string(e) }

// SubscriberName is a display name that has passed validation.
type SubscriberName string

// maxNameGraphemes is counted in grapheme clusters, not bytes, so names in
// any script get the same visible-length limit.
const maxNameGraphemes = 256

// forbiddenNameCharacters are rejected wholesale to keep names safe to embed
// in email bodies.
const forbiddenNameCharacters = `/()"<>\{}`

// ParseSubscriberName validates a display name: non-empty after trimming,
// at most 256 grapheme clusters, and free of forbidden characters.
func ParseSubscriberName(s string) (SubscriberName, error) {
	if strings.TrimSpace(s) == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty or whitespace"}
	}
	if uniseg.GraphemeClusterCount(s) > maxNameGraphemes {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("must not exceed %d characters", maxNameGraphemes)}
	}
	if strings.ContainsAny(s, forbiddenNameCharacters) {
		return "", &ValidationError{Field: "name", Reason: "contains a forbidden character"}
	}
	return SubscriberName(s), nil
}

func (n SubscriberName) String() string { return string(n) }
