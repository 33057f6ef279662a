// Package mailer delivers OTP codes over SMTP.
package mailer

import (
	"context"
	"fmt"

	"github.com/careledger/auth-service/config"
	"github.com/wneessen/go-mail"
)

type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(cfg *config.Config) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.FromEmail}, nil
}

func (m *SMTPMailer) SendOtp(ctx context.Context, toEmail, code string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Your verification code")
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("Your OTP is %s. It expires in 15 minutes.", code))
	msg.AddAlternativeString(mail.TypeTextHTML,
		fmt.Sprintf("<p>Your OTP is <strong>%s</strong>. It expires in 15 minutes.</p>", code))

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send OTP mail: %w", err)
	}

	return nil
}
