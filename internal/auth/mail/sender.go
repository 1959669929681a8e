// Package mail delivers transactional account emails (confirmation links,
// password reset links) over SMTP, with a log-only sender for development.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/almny/almny-auth/pkg/slogx"
)

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPConfig holds connection settings for an SMTP relay. Auth is skipped
// when Username is empty, which suits local relays like mailpit.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender returns a Sender that delivers through the configured relay.
func NewSMTPSender(cfg SMTPConfig) Sender {
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	slogx.FromContext(ctx).Debug("email sent", "to", to, "subject", subject)
	return nil
}

type logSender struct{}

// NewLogSender returns a Sender that only logs, for development setups
// without an SMTP relay. The body is logged at debug so confirmation links
// can be fished out of the log.
func NewLogSender() Sender {
	return &logSender{}
}

func (l *logSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	log := slogx.FromContext(ctx)
	log.Info("email suppressed (log sender)", "to", to, "subject", subject)
	log.Debug("email body", slog.String("body", htmlBody))
	return nil
}
