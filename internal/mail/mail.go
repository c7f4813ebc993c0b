// Package mail delivers transactional email through SendGrid. The only mail
// the API sends today is the password-reset message.
package mail

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/tbourn/go-bootcamp-backend/internal/config"
)

// Sender delivers a single plain-text email.
type Sender interface {
	Send(to, subject, body string) error
}

// SendGridSender implements Sender over the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridSender builds a sender from mail configuration.
func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.SendGridKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}
}

// Send delivers one message and fails on any non-2xx provider response.
func (s *SendGridSender) Send(to, subject, body string) error {
	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	msg := sgmail.NewSingleEmail(from, subject, sgmail.NewEmail("", to), body, body)
	resp, err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("send email: provider status %d", resp.StatusCode)
	}
	return nil
}

// ResetPasswordBody renders the plain-text reset message containing the raw
// (unhashed) token URL.
func ResetPasswordBody(resetURL string) string {
	return "You are receiving this email because you (or someone else) has requested the reset of a password. " +
		"Please make a PUT request to:\n\n" + resetURL
}
