// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package newsletter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/email"
	"codeberg.org/oliverandrich/newsletter/internal/services/newsletter"
	"codeberg.org/oliverandrich/newsletter/internal/testutil"
)

const adminPassword = "everythinghastostartsomewhere"

func newTestService(t *testing.T) (*newsletter.Service, *repository.Repository, *testutil.FakeGateway) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	hash, err := auth.HashPassword(adminPassword)
	require.NoError(t, err)
	testutil.NewTestUser(t, repo, "admin", hash)

	gateway := testutil.NewFakeGateway()
	svc := newsletter.NewService(repo, auth.NewService(repo), gateway)
	return svc, repo, gateway
}

func TestPublish_OnlyConfirmedSubscribersReceiveMail(t *testing.T) {
	svc, repo, gateway := newTestService(t)
	ctx := context.Background()

	testutil.NewTestSubscriber(t, repo, "confirmed@example.com", "Confirmed", models.StatusConfirmed)
	testutil.NewTestSubscriber(t, repo, "pending@example.com", "Pending", models.StatusPendingConfirmation)

	err := svc.Publish(ctx, "admin", adminPassword, newsletter.Issue{
		Title:   "T",
		Content: "<p>C</p>",
	})

	require.NoError(t, err)
	msgs := gateway.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "confirmed@example.com", msgs[0].To)
	assert.Equal(t, "T", msgs[0].Subject)
	assert.Equal(t, "<p>C</p>", msgs[0].HTML)
}

func TestPublish_BadCredentialsSendNothing(t *testing.T) {
	svc, repo, gateway := newTestService(t)
	ctx := context.Background()

	testutil.NewTestSubscriber(t, repo, "confirmed@example.com", "Confirmed", models.StatusConfirmed)

	err := svc.Publish(ctx, "admin", "wrong-password", newsletter.Issue{Title: "T", Content: "C"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	err = svc.Publish(ctx, "nobody", adminPassword, newsletter.Issue{Title: "T", Content: "C"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	assert.Empty(t, gateway.Messages())
}

func TestPublish_SkipsUnparseableStoredEmails(t *testing.T) {
	svc, repo, gateway := newTestService(t)
	ctx := context.Background()

	// A historical row that predates stricter validation.
	testutil.NewTestSubscriber(t, repo, "definitely not an address", "Legacy", models.StatusConfirmed)
	testutil.NewTestSubscriber(t, repo, "valid@example.com", "Valid", models.StatusConfirmed)

	err := svc.Publish(ctx, "admin", adminPassword, newsletter.Issue{Title: "T", Content: "C"})

	require.NoError(t, err)
	msgs := gateway.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "valid@example.com", msgs[0].To)
}

func TestPublish_AbortsOnFirstSendFailure(t *testing.T) {
	svc, repo, gateway := newTestService(t)
	ctx := context.Background()

	testutil.NewTestSubscriber(t, repo, "a@example.com", "A", models.StatusConfirmed)
	testutil.NewTestSubscriber(t, repo, "b@example.com", "B", models.StatusConfirmed)
	testutil.NewTestSubscriber(t, repo, "c@example.com", "C", models.StatusConfirmed)

	gateway.FailFor["b@example.com"] = errors.New("smtp timeout")

	err := svc.Publish(ctx, "admin", adminPassword, newsletter.Issue{Title: "T", Content: "C"})

	var dErr *email.DeliveryError
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, "b@example.com", dErr.Recipient)

	// a@ was already delivered, c@ never attempted.
	msgs := gateway.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "a@example.com", msgs[0].To)
}
