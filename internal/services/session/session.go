// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session manages admin login sessions and flash messages. The
// browser only holds an opaque session id inside a securecookie-signed
// cookie; the authenticated user id lives in a server-side store guarded
// by a mutex.
package session

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/newsletter/internal/config"
)

const flashCookieSuffix = "_flash"

type record struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// Manager issues, validates and destroys sessions.
type Manager struct {
	sc         *securecookie.SecureCookie
	cookieName string
	maxAge     time.Duration
	secure     bool

	mu       sync.Mutex
	sessions map[string]record
}

// NewManager creates a session manager. HashKey must be a 32-byte hex
// string; it is generated on the fly when empty (sessions then do not
// survive restarts). BlockKey optionally enables cookie encryption.
func NewManager(cfg *config.SessionConfig, secure bool) (*Manager, error) {
	hashKey, err := keyFromHex(cfg.HashKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session hash key: %w", err)
	}
	if hashKey == nil {
		hashKey = securecookie.GenerateRandomKey(32)
	}

	var blockKey []byte
	if cfg.BlockKey != "" {
		blockKey, err = keyFromHex(cfg.BlockKey)
		if err != nil {
			return nil, fmt.Errorf("invalid session block key: %w", err)
		}
	}

	return &Manager{
		sc:         securecookie.New(hashKey, blockKey),
		cookieName: cfg.CookieName,
		maxAge:     time.Duration(cfg.MaxAge) * time.Second,
		secure:     secure,
		sessions:   make(map[string]record),
	}, nil
}

func keyFromHex(raw string) ([]byte, error) {
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Create establishes a new session for the user and sets the cookie. A
// fresh id is generated on every login, so an existing session cannot be
// fixated.
func (m *Manager) Create(c echo.Context, userID uuid.UUID) error {
	id := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))

	m.mu.Lock()
	m.sessions[id] = record{userID: userID, expiresAt: time.Now().Add(m.maxAge)}
	m.mu.Unlock()

	encoded, err := m.sc.Encode(m.cookieName, id)
	if err != nil {
		return fmt.Errorf("encoding session cookie: %w", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(m.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// UserID returns the authenticated user id for the request, if any. The
// store lock is held only for the lookup itself.
func (m *Manager) UserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := m.sessionID(c)
	if !ok {
		return uuid.Nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.sessions[id]
	if !ok {
		return uuid.Nil, false
	}
	if time.Now().After(rec.expiresAt) {
		delete(m.sessions, id)
		return uuid.Nil, false
	}
	return rec.userID, true
}

// Destroy removes the server-side session record and expires the cookie.
func (m *Manager) Destroy(c echo.Context) {
	if id, ok := m.sessionID(c); ok {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}

	c.SetCookie(&http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) sessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}

	var id string
	if err := m.sc.Decode(m.cookieName, cookie.Value, &id); err != nil {
		return "", false
	}
	return id, true
}

// SetFlash stores a one-shot message in its own signed cookie, so it also
// works for anonymous visitors (e.g. a failed login).
func (m *Manager) SetFlash(c echo.Context, msg string) {
	name := m.cookieName + flashCookieSuffix
	encoded, err := m.sc.Encode(name, msg)
	if err != nil {
		return
	}

	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlash returns the pending flash message and clears it.
func (m *Manager) PopFlash(c echo.Context) string {
	name := m.cookieName + flashCookieSuffix
	cookie, err := c.Cookie(name)
	if err != nil {
		return ""
	}

	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	var msg string
	if err := m.sc.Decode(name, cookie.Value, &msg); err != nil {
		return ""
	}
	return msg
}
