// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/email"
	"codeberg.org/oliverandrich/newsletter/internal/services/subscription"
)

// Fixed client-visible messages. Internal error text (SQL errors, SMTP
// responses) must never cross the boundary.
const (
	msgAuthFailed     = "Authentication failed"
	msgServerError    = "Something went wrong"
	msgUnknownToken   = "Unknown subscription token"
	msgMalformedInput = "Malformed request"
)

// respondError translates a workflow error into an HTTP response. The full
// cause is logged server-side only.
func respondError(c echo.Context, err error) error {
	var vErr *subscription.ValidationError
	if errors.As(err, &vErr) {
		return c.String(http.StatusBadRequest, vErr.Error())
	}

	if errors.Is(err, auth.ErrInvalidCredentials) {
		return c.String(http.StatusUnauthorized, msgAuthFailed)
	}

	// Unknown tokens answer unauthorized, not not-found, so guessing
	// token formats confirms nothing.
	if errors.Is(err, subscription.ErrUnknownToken) {
		return c.String(http.StatusUnauthorized, msgUnknownToken)
	}

	var dErr *email.DeliveryError
	if errors.As(err, &dErr) {
		slog.Error("delivery_failed", "recipient", dErr.Recipient, "error", dErr.Cause)
		return c.String(http.StatusInternalServerError, msgServerError)
	}

	slog.Error("request_failed", "path", c.Path(), "error", err)
	return c.String(http.StatusInternalServerError, msgServerError)
}
