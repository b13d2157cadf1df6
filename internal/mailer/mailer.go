// Package mailer delivers transactional email for the newsletter service.
package mailer

import "context"

// Mailer is the outbound-mail collaborator. Implementations must treat a nil
// error as "the message was accepted by the transport", nothing stronger.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody, textBody string) error
}
