package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a plain-text email to a single recipient
type Message struct {
	To      string
	ToName  string
	Subject string
	Text    string
}

// Mailer sends email messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Config selects and configures the mail backend
type Config struct {
	// Backend is one of console, smtp, sendgrid.
	Backend        string
	FromName       string
	FromEmail      string
	SMTP           SMTPConfig
	SendgridAPIKey string
}

// New returns the Mailer for cfg.Backend
func New(cfg Config, logger zerolog.Logger) (Mailer, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "console":
		return NewConsoleMailer(logger), nil
	case "smtp":
		smtpCfg := cfg.SMTP
		smtpCfg.FromName, smtpCfg.FromEmail = cfg.FromName, cfg.FromEmail
		return NewSMTPMailer(smtpCfg, logger), nil
	case "sendgrid":
		return NewSendgridMailer(cfg.SendgridAPIKey, cfg.FromName, cfg.FromEmail, logger), nil
	default:
		return nil, fmt.Errorf("unknown email backend %q", cfg.Backend)
	}
}

// ConsoleMailer writes messages to the log instead of delivering them
type ConsoleMailer struct {
	logger zerolog.Logger
}

// NewConsoleMailer creates a ConsoleMailer
func NewConsoleMailer(logger zerolog.Logger) *ConsoleMailer {
	return &ConsoleMailer{logger: logger}
}

// Send logs the message
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("Email (console backend)")
	return nil
}
