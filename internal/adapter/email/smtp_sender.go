// Package email delivers notifications by e-mail.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/airbrb/booking-client/internal/config"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// ErrIncompleteConfig is returned when the SMTP settings cannot send mail.
var ErrIncompleteConfig = errors.New("SMTP configuration is incomplete")

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender mails each notification to its recipient. It implements
// domain.NotificationSink.
type Sender struct {
	cfg    config.SMTPConfig
	dialer dialer
	logger *logger.Logger
}

// NewSMTPSender creates a Sender backed by a gomail dialer.
func NewSMTPSender(cfg config.SMTPConfig, log *logger.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: log.Named("SMTPSender"),
	}
}

// Name implements domain.NotificationSink.
func (s *Sender) Name() string { return "smtp" }

// Deliver implements domain.NotificationSink.
func (s *Sender) Deliver(ctx context.Context, recipient string, n domain.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject := "[airbrb] " + n.Message
	body := n.Detail
	if body == "" {
		body = n.Message
	}
	return s.SendEmail([]string{recipient}, subject, body)
}

// SendEmail sends a plain-text message.
func (s *Sender) SendEmail(to []string, subject, body string) error {
	if s.cfg.Host == "" || s.cfg.SenderEmail == "" || len(to) == 0 {
		s.logger.Error("SMTP configuration is incomplete. Email not sent.",
			zap.String("host", s.cfg.Host),
			zap.String("username", s.cfg.Username),
			zap.Bool("password_set", s.cfg.Password != ""),
			zap.String("sender", s.cfg.SenderEmail))
		return ErrIncompleteConfig
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SenderEmail)
	m.SetHeader("To", to...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send email", zap.Error(err), zap.Strings("to", to), zap.String("subject", subject))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent successfully", zap.Strings("to", to), zap.String("subject", subject))
	return nil
}
