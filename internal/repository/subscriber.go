// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/newsletter/internal/models"
)

// InsertSubscriber saves a new subscriber. It accepts any ExtContext so the
// registration workflow can run it inside the same transaction as the token
// insert.
func (r *Repository) InsertSubscriber(ctx context.Context, ext sqlx.ExtContext, sub *models.Subscriber) error {
	_, err := ext.ExecContext(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.Email, sub.Name, sub.SubscribedAt, sub.Status)
	return err
}

// StoreToken binds a confirmation token to a subscriber id.
func (r *Repository) StoreToken(ctx context.Context, ext sqlx.ExtContext, token string, subscriberID uuid.UUID) error {
	_, err := ext.ExecContext(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id) VALUES (?, ?)`,
		token, subscriberID)
	return err
}

// GetSubscriberIDByToken looks up the subscriber bound to a confirmation
// token. Returns ErrNotFound for unknown tokens.
func (r *Repository) GetSubscriberIDByToken(ctx context.Context, token string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id,
		`SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = ?`, token)
	if err != nil {
		return uuid.Nil, wrapError(err)
	}
	return id, nil
}

// ConfirmSubscriber flips a subscriber's status to confirmed. The update is
// a single statement and idempotent, so no transaction is needed.
func (r *Repository) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE id = ?`,
		models.StatusConfirmed, subscriberID)
	return err
}

// GetSubscriber retrieves a subscriber by id.
func (r *Repository) GetSubscriber(ctx context.Context, id uuid.UUID) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := r.db.GetContext(ctx, &sub,
		`SELECT id, email, name, subscribed_at, status FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &sub, nil
}

// ConfirmedSubscriberEmails returns the raw stored email addresses of all
// confirmed subscribers. Rows are returned as stored; callers are expected
// to re-validate since historical rows may predate stricter validation.
func (r *Repository) ConfirmedSubscriberEmails(ctx context.Context) ([]string, error) {
	var emails []string
	err := r.db.SelectContext(ctx, &emails,
		`SELECT email FROM subscriptions WHERE status = ?`, models.StatusConfirmed)
	if err != nil {
		return nil, err
	}
	return emails, nil
}

// CountSubscribers returns the number of subscribers with the given status.
func (r *Repository) CountSubscribers(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT count(*) FROM subscriptions WHERE status = ?`, status)
	return count, err
}
