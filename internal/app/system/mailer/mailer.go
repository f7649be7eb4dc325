// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both plain-text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. Host/port point at a relay (Mailpit locally,
// SES or similar in production); Username/Password may be empty for
// unauthenticated relays.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // e.g., noreply@gatehouse.example
	FromName string // e.g., Gatehouse
}

// Mailer sends email over SMTP. Failures are returned to the caller, which
// decides whether dispatch is best-effort.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a Mailer with the given configuration.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers the email through the configured SMTP relay. The relay
// connection manages its own timeouts; ctx is only consulted before dialing.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.To == "" {
		return fmt.Errorf("mailer: missing recipient")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg, e)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	m.log.Debug("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}

// buildMessage assembles a multipart/alternative MIME message so clients can
// pick the text or HTML body.
func buildMessage(cfg Config, e Email) []byte {
	const boundary = "gatehouse-alt-0001"

	var b strings.Builder
	from := cfg.From
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", cfg.FromName), cfg.From)
	}

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n", boundary)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.TextBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s\r\n", boundary)
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(e.HTMLBody)
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}
