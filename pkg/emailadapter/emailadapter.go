// Package emailadapter is the outbound email adapter: send a discharge
// summary, ok or error. A nil *Service is a valid, inert value so
// callers never need a presence check before notifying.
package emailadapter

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// Summary is the content of a discharge-summary email.
type Summary struct {
	To        string
	Subject   string
	BodyPlain string
	BodyHTML  string // optional
}

// Config configures the SMTP backing.
type Config struct {
	SMTPHost string
	SMTPPort int
	From     string
	Username string
	Password string
}

// Service sends discharge summaries over SMTP. A nil *Service is a
// valid, inert value: every method becomes a logged no-op, so a
// deployment that hasn't configured email simply skips sending instead
// of failing the dialog controller's EmailConfirm step.
type Service struct {
	cfg Config
	log *slog.Logger
}

// New constructs a Service, or nil if cfg has no SMTP host configured
// (the fail-open case).
func New(cfg Config) *Service {
	if cfg.SMTPHost == "" {
		slog.Warn("email adapter not configured, summaries will not be sent", "reason", "EMAIL_SMTP_HOST unset")
		return nil
	}
	return &Service{cfg: cfg, log: slog.With("component", "emailadapter")}
}

// SendSummary sends a discharge summary email. On a nil receiver, it
// logs and returns nil rather than erroring: email is a courtesy
// notification, not a blocking requirement of the core call pipeline.
func (s *Service) SendSummary(ctx context.Context, summary Summary) error {
	if s == nil {
		slog.Warn("email adapter disabled, dropping summary", "to", summary.To)
		return nil
	}

	msg := buildMIMEMessage(s.cfg.From, summary)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	}

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{summary.To}, msg); err != nil {
		s.log.Error("failed to send summary email", "to", summary.To, "error", err)
		return fmt.Errorf("sending summary email: %w", err)
	}

	s.log.Info("sent discharge summary email", "to", summary.To)
	return nil
}

func buildMIMEMessage(from string, summary Summary) []byte {
	body := summary.BodyPlain
	contentType := "text/plain; charset=UTF-8"
	if summary.BodyHTML != "" {
		body = summary.BodyHTML
		contentType = "text/html; charset=UTF-8"
	}

	return []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: %s\r\n\r\n%s\r\n",
		from, summary.To, summary.Subject, contentType, body,
	))
}
