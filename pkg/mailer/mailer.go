package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/fyp-portal/fyp-admin-api/pkg/config"
)

// Mailer delivers transactional mail such as password-reset OTPs.
type Mailer interface {
	Send(ctx context.Context, toName, toEmail, subject, body string) error
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger *zap.Logger
}

// NewSendGrid constructs a SendGrid mailer.
func NewSendGrid(cfg config.MailConfig, logger *zap.Logger) *SendGrid {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(cfg.SendGridKey),
		from:   sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		logger: logger,
	}
}

// Send delivers a plain-text message to a single recipient.
func (m *SendGrid) Send(ctx context.Context, toName, toEmail, subject, body string) error {
	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(toName, toEmail), body, "")
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d", resp.StatusCode)
	}
	m.logger.Debug("mail sent", zap.String("to", toEmail), zap.String("subject", subject))
	return nil
}

// Log writes mail to the application log instead of sending it. Used in
// development and tests where no SendGrid key is configured.
type Log struct {
	logger *zap.Logger
}

// NewLog constructs a log-only mailer.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs the message and reports success.
func (m *Log) Send(_ context.Context, _, toEmail, subject, body string) error {
	m.logger.Info("mail (not sent)",
		zap.String("to", toEmail),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
