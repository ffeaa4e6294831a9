// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/newsletter/internal/services/subscription"
)

// SubscriptionHandlers serves registration and confirmation.
type SubscriptionHandlers struct {
	subs *subscription.Service
}

// NewSubscriptions creates a new SubscriptionHandlers instance.
func NewSubscriptions(subs *subscription.Service) *SubscriptionHandlers {
	return &SubscriptionHandlers{subs: subs}
}

// SubscribeForm is the form body of POST /subscriptions.
type SubscribeForm struct {
	Email string `form:"email"`
	Name  string `form:"name"`
}

// Subscribe registers a new subscriber and mails the confirmation link.
func (h *SubscriptionHandlers) Subscribe(c echo.Context) error {
	var form SubscribeForm
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	if err := h.subs.Register(c.Request().Context(), form.Email, form.Name); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// Confirm flips a pending subscriber to confirmed.
func (h *SubscriptionHandlers) Confirm(c echo.Context) error {
	token := c.QueryParam("subscription_token")
	if token == "" {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	if err := h.subs.Confirm(c.Request().Context(), token); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusOK)
}
