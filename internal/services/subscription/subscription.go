// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package subscription implements the registration and confirmation
// workflows for newsletter subscribers.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/email"
)

// ErrUnknownToken is returned when a confirmation token has no binding.
// Handlers surface it as unauthorized, not as not-found, so token format
// guesses are not confirmed.
var ErrUnknownToken = errors.New("unknown subscription token")

// Service orchestrates subscriber registration and confirmation.
type Service struct {
	repo    *repository.Repository
	gateway email.Gateway
	baseURL string
}

// NewService creates a new subscription service.
func NewService(repo *repository.Repository, gateway email.Gateway, baseURL string) *Service {
	return &Service{repo: repo, gateway: gateway, baseURL: baseURL}
}

// Register validates the form input, persists the subscriber together with
// a fresh confirmation token in one transaction, and then sends the
// confirmation email.
//
// If the email send fails the subscriber and token remain persisted; there
// is no compensating rollback. Delivery can be retried out of band.
func (s *Service) Register(ctx context.Context, rawEmail, rawName string) error {
	addr, err := ParseEmail(rawEmail)
	if err != nil {
		return err
	}
	name, err := ParseName(rawName)
	if err != nil {
		return err
	}

	sub := &models.Subscriber{
		ID:           uuid.New(),
		Email:        addr,
		Name:         name,
		SubscribedAt: time.Now().UTC(),
		Status:       models.StatusPendingConfirmation,
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	// The transaction covers exactly the two inserts. It must be released
	// before the outbound email send so no pool slot or row lock is held
	// across network I/O.
	if err := s.persist(ctx, sub, token); err != nil {
		return err
	}

	slog.Info("subscriber_registered", "subscriber_id", sub.ID, "email", addr)

	if err := s.sendConfirmation(ctx, addr, token); err != nil {
		return err
	}

	return nil
}

func (s *Service) persist(ctx context.Context, sub *models.Subscriber, token string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := s.repo.InsertSubscriber(ctx, tx, sub); err != nil {
		return fmt.Errorf("inserting subscriber: %w", err)
	}

	if err := s.repo.StoreToken(ctx, tx, token, sub.ID); err != nil {
		return fmt.Errorf("storing confirmation token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func (s *Service) sendConfirmation(ctx context.Context, addr, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)

	subject := i18n.T(ctx, "confirmation_email_subject")
	body := i18n.TData(ctx, "confirmation_email_body", map[string]any{
		"ConfirmationLink": link,
	})

	if err := s.gateway.Send(ctx, addr, subject, body); err != nil {
		return &email.DeliveryError{Recipient: addr, Cause: err}
	}

	return nil
}

// Confirm looks up the subscriber bound to the token and marks them as
// confirmed. Confirming an already-confirmed subscriber is a no-op success;
// tokens are not consumed.
func (s *Service) Confirm(ctx context.Context, token string) error {
	id, err := s.repo.GetSubscriberIDByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnknownToken
		}
		return fmt.Errorf("looking up token: %w", err)
	}

	if err := s.repo.ConfirmSubscriber(ctx, id); err != nil {
		return fmt.Errorf("confirming subscriber: %w", err)
	}

	slog.Info("subscriber_confirmed", "subscriber_id", id)
	return nil
}
