// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package newsletter implements publishing an issue to all confirmed
// subscribers.
package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/email"
)

// Issue is one newsletter issue. It is never persisted; it only exists for
// the duration of a publish call.
type Issue struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Service fans an issue out to all confirmed subscribers.
type Service struct {
	repo      *repository.Repository
	validator *auth.Service
	gateway   email.Gateway
}

// NewService creates a new newsletter service.
func NewService(repo *repository.Repository, validator *auth.Service, gateway email.Gateway) *Service {
	return &Service{repo: repo, validator: validator, gateway: gateway}
}

// Publish authenticates the caller and delivers the issue sequentially to
// every confirmed subscriber. Stored addresses that no longer parse are
// logged and skipped; the first failed send aborts the rest of the batch.
// Already-sent emails cannot be recalled, so delivery is at-most-once per
// subscriber per call.
func (s *Service) Publish(ctx context.Context, username, password string, issue Issue) error {
	userID, err := s.validator.Validate(ctx, username, password)
	if err != nil {
		return err
	}

	return s.PublishAs(ctx, userID, issue)
}

// PublishAs delivers an issue on behalf of an already-authenticated user,
// e.g. one holding a valid admin session.
func (s *Service) PublishAs(ctx context.Context, userID uuid.UUID, issue Issue) error {
	emails, err := s.repo.ConfirmedSubscriberEmails(ctx)
	if err != nil {
		return fmt.Errorf("loading confirmed subscribers: %w", err)
	}

	sent := 0
	for _, raw := range emails {
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			// Rows inserted before validation was tightened may hold
			// unparseable addresses. Skip them, don't fail the batch.
			slog.Warn("skipping invalid subscriber email", "email", raw, "error", err)
			continue
		}

		if err := s.gateway.Send(ctx, addr.Address, issue.Title, issue.Content); err != nil {
			slog.Error("newsletter_send_failed",
				"user_id", userID, "recipient", addr.Address, "sent_before_failure", sent, "error", err)
			return &email.DeliveryError{Recipient: addr.Address, Cause: err}
		}
		sent++
	}

	slog.Info("newsletter_published", "user_id", userID, "recipients", sent)
	return nil
}
