// Package email renders and delivers the transactional mail the admissions
// workflow sends: offer letters, rejections, routing notices, and payment
// confirmations. Delivery is best-effort at call sites; a failed send never
// rolls back the transition that triggered it.
package email

import (
	"context"
	"log/slog"
)

//go:generate mockgen -source=email.go -destination=../../mocks/email_sender_mock.go -package=mocks

// Message is one outbound email. Template names the builder that produced it
// and labels the send metric.
type Message struct {
	Template string
	To       string
	Subject  string
	Body     string
}

// Sender delivers a message to its recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. It is the
// sender for local development and tests.
type LogSender struct {
	logger *slog.Logger
}

var _ Sender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, "email (log sender)",
		"template", msg.Template,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
