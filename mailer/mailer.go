// Package mailer sends outbound notification email. The SMTP
// implementation wraps wneessen/go-mail; LogMailer stands in when no
// SMTP credentials are configured so workflows degrade to a log line
// instead of failing.
package mailer

import "context"

// Mailer delivers a plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}
