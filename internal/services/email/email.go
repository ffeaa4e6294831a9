// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email defines the outbound email gateway and its SMTP
// implementation.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"codeberg.org/oliverandrich/newsletter/internal/config"
)

// Gateway is the single capability the workflows need: deliver one HTML
// message to one recipient. Implementations must be safe for concurrent use.
type Gateway interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPGateway sends email via SMTP using go-mail.
type SMTPGateway struct {
	cfg *config.SMTPConfig
}

// NewSMTPGateway creates a new SMTP gateway.
func NewSMTPGateway(cfg *config.SMTPConfig) (*SMTPGateway, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &SMTPGateway{cfg: cfg}, nil
}

// Send delivers a single HTML message.
func (g *SMTPGateway) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if g.cfg.FromName != "" {
		if err := msg.FromFormat(g.cfg.FromName, g.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(g.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	opts := []mail.Option{
		mail.WithPort(g.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS for others.
	if g.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if g.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if g.cfg.Username != "" && g.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(g.cfg.Username),
			mail.WithPassword(g.cfg.Password),
		)
	}

	client, err := mail.NewClient(g.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
