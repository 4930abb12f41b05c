package email

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/airbrb/booking-client/internal/config"
	"github.com/airbrb/booking-client/internal/domain"
	"github.com/airbrb/booking-client/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSender_IncompleteConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  config.SMTPConfig
	}{
		{"Missing Host", config.SMTPConfig{Port: 587, SenderEmail: "sender@example.com"}},
		{"Missing SenderEmail", config.SMTPConfig{Host: "smtp.example.com", Port: 587}},
		{"All Missing", config.SMTPConfig{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDialer{}
			s := NewSMTPSender(tc.cfg, logger.NewNop())
			s.dialer = d

			err := s.SendEmail([]string{"recipient@example.com"}, "Test Subject", "Test Body")
			require.ErrorIs(t, err, ErrIncompleteConfig)
			assert.Empty(t, d.sent)
		})
	}
}

func TestSender_DeliverBuildsMessage(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", Port: 587, SenderEmail: "noreply@airbrb.test"}, logger.NewNop())
	s.dialer = d

	err := s.Deliver(context.Background(), "guest@example.com", domain.Notification{
		Type: domain.NotificationGuest, Message: "Booking accepted", Detail: "Your booking at Beach House was accepted.",
	})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)

	m := d.sent[0]
	assert.Equal(t, []string{"guest@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"[airbrb] Booking accepted"}, m.GetHeader("Subject"))
	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Beach House")
	assert.Equal(t, "smtp", s.Name())
}

func TestSender_DialFailure(t *testing.T) {
	s := NewSMTPSender(config.SMTPConfig{Host: "smtp.example.com", SenderEmail: "noreply@airbrb.test"}, logger.NewNop())
	s.dialer = &fakeDialer{err: errors.New("connection refused")}

	err := s.Deliver(context.Background(), "guest@example.com", domain.Notification{Message: "x"})
	assert.ErrorContains(t, err, "connection refused")
}
