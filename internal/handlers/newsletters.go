// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/newsletter/internal/services/newsletter"
	"codeberg.org/oliverandrich/newsletter/internal/services/session"
)

// NewsletterHandlers serves newsletter publication.
type NewsletterHandlers struct {
	news     *newsletter.Service
	sessions *session.Manager
}

// NewNewsletters creates a new NewsletterHandlers instance.
func NewNewsletters(news *newsletter.Service, sessions *session.Manager) *NewsletterHandlers {
	return &NewsletterHandlers{news: news, sessions: sessions}
}

// Publish handles POST /newsletters with HTTP Basic credentials.
func (h *NewsletterHandlers) Publish(c echo.Context) error {
	username, password, ok := c.Request().BasicAuth()
	if !ok {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="publish"`)
		return c.String(http.StatusUnauthorized, msgAuthFailed)
	}

	var issue newsletter.Issue
	if err := c.Bind(&issue); err != nil {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	if err := h.news.Publish(c.Request().Context(), username, password, issue); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusOK)
}

// PublishAdmin handles POST /admin/newsletters on behalf of a logged-in
// administrator. The session middleware has already authenticated the
// caller.
func (h *NewsletterHandlers) PublishAdmin(c echo.Context) error {
	userID, ok := h.sessions.UserID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	var issue newsletter.Issue
	if err := c.Bind(&issue); err != nil {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	if err := h.news.PublishAs(c.Request().Context(), userID, issue); err != nil {
		return respondError(c, err)
	}

	return c.NoContent(http.StatusOK)
}
