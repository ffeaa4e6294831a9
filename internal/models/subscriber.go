// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscriber status values. A subscriber only ever moves from
// pending_confirmation to confirmed, never backwards.
const (
	StatusPendingConfirmation = "pending_confirmation"
	StatusConfirmed           = "confirmed"
)

// Subscriber is a newsletter subscriber.
type Subscriber struct { //nolint:govet // fieldalignment not critical for models
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	SubscribedAt time.Time `db:"subscribed_at" json:"subscribed_at"`
	Status       string    `db:"status" json:"status"`
}

// SubscriptionToken binds a one-time confirmation token to a subscriber.
// Tokens are created in the same transaction as the subscriber row and are
// immutable afterwards.
type SubscriptionToken struct {
	Token        string    `db:"subscription_token" json:"-"`
	SubscriberID uuid.UUID `db:"subscriber_id" json:"subscriber_id"`
}
