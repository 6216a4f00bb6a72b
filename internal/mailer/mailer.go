// Package mailer delivers tenant-scoped outbound mail. Each tenant gets its
// own Mailer built from its service configuration; handles are shared by all
// requests for that tenant for the process lifetime.
package mailer

import (
	"context"
	"fmt"

	"github.com/mailgun/mailgun-go/v4"
	"go.uber.org/zap"

	"github.com/miketerry-org/kickstart-mvc/internal/domain"
)

// Mailer sends a single message. Implementations must be safe for
// concurrent use.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New builds the mailer selected by the tenant's configuration. An empty API
// key or the "log" provider yields the development mailer, which writes
// messages to the tenant log instead of sending them.
func New(cfg domain.MailerConfig, log *zap.Logger) (Mailer, error) {
	switch {
	case cfg.Provider == "log" || cfg.APIKey == "":
		return &LogMailer{log: log}, nil
	case cfg.Provider == "mailgun" || cfg.Provider == "":
		if cfg.Domain == "" {
			return nil, fmt.Errorf("mailgun mailer requires a domain")
		}
		if cfg.Sender == "" {
			return nil, fmt.Errorf("mailgun mailer requires a sender address")
		}
		return &MailgunMailer{
			client: mailgun.NewMailgun(cfg.Domain, cfg.APIKey),
			sender: cfg.Sender,
		}, nil
	default:
		return nil, fmt.Errorf("unknown mailer provider %q", cfg.Provider)
	}
}

// MailgunMailer sends mail through the Mailgun HTTP API.
type MailgunMailer struct {
	client mailgun.Mailgun
	sender string
}

func (m *MailgunMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := m.client.NewMessage(m.sender, subject, body, to)
	if _, _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// LogMailer records messages on the tenant log. Used in development and in
// tenants without mail credentials.
type LogMailer struct {
	log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("outbound mail",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
