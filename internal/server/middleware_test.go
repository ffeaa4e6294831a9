// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/newsletter/internal/config"
	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/services/session"
)

func TestI18nMiddleware(t *testing.T) {
	require.NoError(t, i18n.Init())
	e := echo.New()

	var subject string
	handler := i18nMiddleware()(func(c echo.Context) error {
		subject = i18n.T(c.Request().Context(), "confirmation_email_subject")
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9")
	rec := httptest.NewRecorder()

	require.NoError(t, handler(e.NewContext(req, rec)))
	assert.Equal(t, "Willkommen!", subject)
}

func TestRequireSession(t *testing.T) {
	sessions, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
	}, false)
	require.NoError(t, err)

	e := echo.New()
	handler := requireSession(sessions)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("anonymous request redirects to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("valid session passes through", func(t *testing.T) {
		loginReq := httptest.NewRequest(http.MethodGet, "/", nil)
		loginRec := httptest.NewRecorder()
		require.NoError(t, sessions.Create(e.NewContext(loginReq, loginRec), uuid.New()))

		req := httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
		for _, cookie := range loginRec.Result().Cookies() {
			req.AddCookie(cookie)
		}
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
