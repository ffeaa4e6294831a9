// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package subscription

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
)

// maxNameLen bounds the display name length.
const maxNameLen = 256

// forbiddenNameChars would allow header or markup injection if they ended up
// in an email or a rendered page.
const forbiddenNameChars = `/()"<>\{}`

// ValidationError describes rejected caller input. It is a client error and
// is never logged as a server fault.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ParseEmail validates an email address as a parseable addr-spec and
// returns it in its canonical address form.
func ParseEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return "", &ValidationError{Field: "email", Reason: "not a valid email address"}
	}
	return addr.Address, nil
}

// ParseName validates a subscriber display name.
func ParseName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len([]rune(name)) > maxNameLen {
		return "", &ValidationError{Field: "name", Reason: fmt.Sprintf("must not exceed %d characters", maxNameLen)}
	}
	if strings.ContainsAny(name, forbiddenNameChars) {
		return "", &ValidationError{Field: "name", Reason: "contains forbidden characters"}
	}
	return name, nil
}

const (
	tokenLen      = 25
	tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// generateToken returns a 25-character alphanumeric confirmation token.
// The token guards a low-value action, but it still must be unguessable.
func generateToken() (string, error) {
	var b strings.Builder
	b.Grow(tokenLen)
	for range tokenLen {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generating token: %w", err)
		}
		b.WriteByte(tokenAlphabet[n.Int64()])
	}
	return b.String(), nil
}
