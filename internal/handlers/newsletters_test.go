// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/newsletter/internal/config"
	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/newsletter"
	"codeberg.org/oliverandrich/newsletter/internal/services/session"
	"codeberg.org/oliverandrich/newsletter/internal/testutil"
)

const testPassword = "correct horse battery"

func newNewsletterHandlers(t *testing.T) (*NewsletterHandlers, *repository.Repository, *testutil.FakeGateway, *session.Manager) {
	t.Helper()
	require.NoError(t, i18n.Init())
	_, repo := testutil.NewTestDB(t)
	gateway := testutil.NewFakeGateway()
	authSvc := auth.NewService(repo)
	news := newsletter.NewService(repo, authSvc, gateway)
	sessions, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
	}, false)
	require.NoError(t, err)

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	testutil.NewTestUser(t, repo, "editor", hash)

	return NewNewsletters(news, sessions), repo, gateway, sessions
}

func publishRequest(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestPublish(t *testing.T) {
	h, repo, gateway, _ := newNewsletterHandlers(t)
	e := echo.New()

	testutil.NewTestSubscriber(t, repo, "a@example.com", "A", models.StatusConfirmed)
	testutil.NewTestSubscriber(t, repo, "b@example.com", "B", models.StatusPendingConfirmation)

	c, rec := publishRequest(e, `{"title":"Issue #1","content":"<p>Hello</p>"}`)
	c.Request().SetBasicAuth("editor", testPassword)

	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	msgs := gateway.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@example.com", msgs[0].To)
	assert.Equal(t, "Issue #1", msgs[0].Subject)
}

func TestPublish_MissingCredentials(t *testing.T) {
	h, _, gateway, _ := newNewsletterHandlers(t)
	e := echo.New()

	c, rec := publishRequest(e, `{"title":"Issue #1","content":"<p>Hello</p>"}`)

	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="publish"`, rec.Header().Get(echo.HeaderWWWAuthenticate))
	assert.Empty(t, gateway.Messages())
}

func TestPublish_WrongPassword(t *testing.T) {
	h, _, gateway, _ := newNewsletterHandlers(t)
	e := echo.New()

	c, rec := publishRequest(e, `{"title":"Issue #1","content":"<p>Hello</p>"}`)
	c.Request().SetBasicAuth("editor", "not the password")

	require.NoError(t, h.Publish(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, gateway.Messages())
}

func TestPublishAdmin(t *testing.T) {
	h, repo, gateway, sessions := newNewsletterHandlers(t)
	e := echo.New()

	testutil.NewTestSubscriber(t, repo, "a@example.com", "A", models.StatusConfirmed)

	user, err := repo.GetUserByUsername(t.Context(), "editor")
	require.NoError(t, err)

	login, loginRec := testutil.NewEchoContext(e, http.MethodGet, "/", nil)
	require.NoError(t, sessions.Create(login, user.ID))

	c, rec := publishRequest(e, `{"title":"Issue #1","content":"<p>Hello</p>"}`)
	for _, cookie := range loginRec.Result().Cookies() {
		c.Request().AddCookie(cookie)
	}

	require.NoError(t, h.PublishAdmin(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, gateway.Messages(), 1)
}

func TestPublishAdmin_NoSession(t *testing.T) {
	h, _, gateway, _ := newNewsletterHandlers(t)
	e := echo.New()

	c, rec := publishRequest(e, `{"title":"Issue #1","content":"<p>Hello</p>"}`)

	require.NoError(t, h.PublishAdmin(c))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.Empty(t, gateway.Messages())
}
