// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"

	"codeberg.org/oliverandrich/newsletter/internal/database"
	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestSubscriber inserts a subscriber with the given status.
func NewTestSubscriber(t *testing.T, repo *repository.Repository, email, name, status string) *models.Subscriber {
	t.Helper()
	sub := &models.Subscriber{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		SubscribedAt: time.Now().UTC(),
		Status:       status,
	}
	ctx := context.Background()
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.InsertSubscriber(ctx, tx, sub))
	require.NoError(t, tx.Commit())
	return sub
}

// NewTestUser inserts an administrator account with the given password hash.
func NewTestUser(t *testing.T, repo *repository.Repository, username, passwordHash string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
	}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewFormContext creates an Echo context carrying form-encoded values.
func NewFormContext(e *echo.Echo, method, path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// SentMail records one message handed to the fake gateway.
type SentMail struct {
	To      string
	Subject string
	HTML    string
}

// FakeGateway is an in-memory email gateway double.
// FailFor marks recipients whose sends should fail.
type FakeGateway struct {
	mu      sync.Mutex
	Sent    []SentMail
	FailFor map[string]error
}

// NewFakeGateway creates an empty fake gateway.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{FailFor: make(map[string]error)}
}

// Send records the message or returns the configured error.
func (g *FakeGateway) Send(_ context.Context, to, subject, htmlBody string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err, ok := g.FailFor[to]; ok {
		return err
	}
	g.Sent = append(g.Sent, SentMail{To: to, Subject: subject, HTML: htmlBody})
	return nil
}

// Messages returns a copy of the sent messages.
func (g *FakeGateway) Messages() []SentMail {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]SentMail, len(g.Sent))
	copy(out, g.Sent)
	return out
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}
