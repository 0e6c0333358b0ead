package mailer

import (
	"context"
	"log/slog"
)

// LogMailer logs messages instead of sending them. Used in development
// and whenever SMTP is not configured.
type LogMailer struct {
	logger *slog.Logger
}

// NewLogMailer creates a mailer that only logs.
func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.logger.Info("mail (not sent, log mailer)",
		slog.String("to", to),
		slog.String("subject", subject),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}
