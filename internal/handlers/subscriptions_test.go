// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/subscription"
	"codeberg.org/oliverandrich/newsletter/internal/testutil"
)

func newSubscriptionHandlers(t *testing.T) (*SubscriptionHandlers, *repository.Repository, *testutil.FakeGateway) {
	t.Helper()
	require.NoError(t, i18n.Init())
	_, repo := testutil.NewTestDB(t)
	gateway := testutil.NewFakeGateway()
	subs := subscription.NewService(repo, gateway, "http://localhost:8000")
	return NewSubscriptions(subs), repo, gateway
}

func TestSubscribe(t *testing.T) {
	h, repo, gateway := newSubscriptionHandlers(t)
	e := echo.New()

	form := url.Values{}
	form.Set("email", "ursula@example.com")
	form.Set("name", "Ursula Le Guin")
	c, rec := testutil.NewFormContext(e, http.MethodPost, "/subscriptions", form)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	count, err := repo.CountSubscribers(c.Request().Context(), models.StatusPendingConfirmation)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, gateway.Messages(), 1)
}

func TestSubscribe_InvalidEmail(t *testing.T) {
	h, repo, gateway := newSubscriptionHandlers(t)
	e := echo.New()

	form := url.Values{}
	form.Set("email", "definitely-not-an-email")
	form.Set("name", "Ursula Le Guin")
	c, rec := testutil.NewFormContext(e, http.MethodPost, "/subscriptions", form)

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	count, err := repo.CountSubscribers(c.Request().Context(), models.StatusPendingConfirmation)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, gateway.Messages())
}

func TestSubscribe_MissingFields(t *testing.T) {
	h, _, _ := newSubscriptionHandlers(t)
	e := echo.New()

	c, rec := testutil.NewFormContext(e, http.MethodPost, "/subscriptions", url.Values{})

	require.NoError(t, h.Subscribe(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirm(t *testing.T) {
	h, repo, gateway := newSubscriptionHandlers(t)
	e := echo.New()

	form := url.Values{}
	form.Set("email", "ursula@example.com")
	form.Set("name", "Ursula Le Guin")
	c, _ := testutil.NewFormContext(e, http.MethodPost, "/subscriptions", form)
	require.NoError(t, h.Subscribe(c))

	link := confirmationLink(t, gateway.Messages()[0].HTML)
	c2, rec := testutil.NewEchoContext(e, http.MethodGet, link, nil)

	require.NoError(t, h.Confirm(c2))
	assert.Equal(t, http.StatusOK, rec.Code)

	count, err := repo.CountSubscribers(c2.Request().Context(), models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConfirm_UnknownToken(t *testing.T) {
	h, _, _ := newSubscriptionHandlers(t)
	e := echo.New()

	c, rec := testutil.NewEchoContext(e, http.MethodGet,
		"/subscriptions/confirm?subscription_token=nope", nil)

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestConfirm_MissingToken(t *testing.T) {
	h, _, _ := newSubscriptionHandlers(t)
	e := echo.New()

	c, rec := testutil.NewEchoContext(e, http.MethodGet, "/subscriptions/confirm", nil)

	require.NoError(t, h.Confirm(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// confirmationLink pulls the href out of the confirmation email body and
// strips the scheme and host, leaving the request path.
func confirmationLink(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, `href="`)
	require.GreaterOrEqual(t, start, 0)
	start += len(`href="`)
	end := strings.Index(body[start:], `"`)
	require.GreaterOrEqual(t, end, 0)
	link := body[start : start+end]
	return strings.TrimPrefix(link, "http://localhost:8000")
}
