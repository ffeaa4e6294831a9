// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package auth validates administrator credentials. It is transport
// agnostic: the interactive login form and the Basic-authenticated publish
// endpoint both go through the same Validate routine.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"codeberg.org/oliverandrich/newsletter/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong
	// passwords. The message is deliberately generic to prevent
	// username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrWeakPassword is returned when a new password is out of bounds.
	ErrWeakPassword = errors.New("password must be between 13 and 128 characters")
)

// decoyPHC is verified against when the username is unknown, so that the
// unknown-user path takes the same hashing time as the wrong-password path.
// Derived from a throwaway password; it matches no real credential.
const decoyPHC = "$argon2id$v=19$m=19456,t=2,p=1$Z2VuZXJpY3NhbHR2YWx1ZQ$0Sky6aPfhSmUiBZOsxMwhLDGHNaAQA1tY0XMiFAFEWM"

const (
	minPasswordLen = 13
	maxPasswordLen = 128
)

// Service validates credentials against the user store.
type Service struct {
	repo *repository.Repository
}

// NewService creates a new credential validation service.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Validate checks a username/password pair and returns the user's id on
// success. Unknown usernames and wrong passwords yield the same
// ErrInvalidCredentials; store failures surface as distinct wrapped errors.
func (s *Service) Validate(ctx context.Context, username, password string) (uuid.UUID, error) {
	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn the same hashing cost as a real verification so
			// response latency does not reveal whether the
			// username exists.
			_, _ = VerifyPassword(decoyPHC, password)
			slog.Warn("auth_failed", "username", username, "reason", "unknown_user")
			return uuid.Nil, ErrInvalidCredentials
		}
		return uuid.Nil, fmt.Errorf("fetching credentials: %w", err)
	}

	ok, err := VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return uuid.Nil, fmt.Errorf("verifying password: %w", err)
	}
	if !ok {
		slog.Warn("auth_failed", "username", username, "reason", "wrong_password")
		return uuid.Nil, ErrInvalidCredentials
	}

	return user.ID, nil
}

// ChangePassword validates the new password, hashes it and stores it.
// Verifying the current password is the caller's job (via Validate).
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if len(newPassword) < minPasswordLen || len(newPassword) > maxPasswordLen {
		return ErrWeakPassword
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	if err := s.repo.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	slog.Info("password_changed", "user_id", userID)
	return nil
}
