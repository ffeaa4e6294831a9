// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"github.com/google/uuid"
)

// User is an administrator account allowed to publish newsletters.
// Accounts are provisioned out of band; this application only reads them
// for credential validation and updates the password hash.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
}
