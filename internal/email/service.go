// Package email delivers transactional mail for JokeHub over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

// Sender is the notifier boundary the rest of the application depends
// on. Callers decide how delivery failures are reported; the password
// reset flow deliberately reports success either way to prevent email
// enumeration.
type Sender interface {
	SendPasswordResetLink(ctx context.Context, to, link string) error
	SendVerificationLink(ctx context.Context, to, link string) error
}

// Service sends mail through a plain SMTP relay.
type Service struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *zap.Logger
}

// NewService creates a new email service with the given SMTP
// configuration.
func NewService(host string, port int, username, password, from string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		logger:   logger,
	}
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		s.from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	if err := smtp.SendMail(addr, auth, s.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	s.logger.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// SendPasswordResetLink mails a password reset link.
func (s *Service) SendPasswordResetLink(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("A password reset was requested for your account.\r\n\r\nReset link: %s\r\n\r\nIf you did not request this, you can ignore this message.", link)
	return s.send(to, "Reset your JokeHub password", body)
}

// SendVerificationLink mails an email verification link.
func (s *Service) SendVerificationLink(ctx context.Context, to, link string) error {
	body := fmt.Sprintf("Welcome to JokeHub!\r\n\r\nPlease verify your email address: %s", link)
	return s.send(to, "Verify your JokeHub email", body)
}
