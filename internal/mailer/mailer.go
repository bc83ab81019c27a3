// Package mailer delivers OTP verification emails over SMTP.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/facetrace/facetrace/internal/config"
	"github.com/wneessen/go-mail"
)

// Mailer sends verification codes from a configured SMTP account.
type Mailer struct {
	cfg config.SMTPConfig
}

// New creates a mailer from SMTP configuration.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Configured reports whether SMTP delivery is set up.
func (m *Mailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.Username != ""
}

// SendOTP emails a verification code to the given address.
func (m *Mailer) SendOTP(ctx context.Context, toEmail, code string) error {
	if !m.Configured() {
		return errors.New("SMTP is not configured")
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject("Your verification code")
	msg.SetBodyString(mail.TypeTextPlain,
		fmt.Sprintf("Your verification code is: %s. It expires in 5 minutes.", code))

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send OTP email: %w", err)
	}
	return nil
}
