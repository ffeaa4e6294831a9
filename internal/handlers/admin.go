// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"html"
	"net/http"

	"github.com/labstack/echo/v4"

	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/session"
)

// AdminHandlers serves the interactive login and the session-gated admin
// pages. The pages are deliberately plain inline HTML; this service has no
// real UI.
type AdminHandlers struct {
	repo     *repository.Repository
	auth     *auth.Service
	sessions *session.Manager
}

// NewAdmin creates a new AdminHandlers instance.
func NewAdmin(repo *repository.Repository, authSvc *auth.Service, sessions *session.Manager) *AdminHandlers {
	return &AdminHandlers{repo: repo, auth: authSvc, sessions: sessions}
}

// LoginForm is the form body of POST /login.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// LoginPage renders the login form, including a pending flash message.
func (h *AdminHandlers) LoginPage(c echo.Context) error {
	flash := ""
	if msg := h.sessions.PopFlash(c); msg != "" {
		flash = fmt.Sprintf("<p><i>%s</i></p>", html.EscapeString(msg))
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta http-equiv="content-type" content="text/html; charset=utf-8">
    <title>Login</title>
</head>
<body>
    %s
    <form action="/login" method="post">
        <label>Username
            <input type="text" placeholder="Enter Username" name="username">
        </label>
        <label>Password
            <input type="password" placeholder="Enter Password" name="password">
        </label>
        <button type="submit">Login</button>
    </form>
</body>
</html>`, flash)

	return c.HTML(http.StatusOK, page)
}

// Login validates the submitted credentials and establishes a session.
func (h *AdminHandlers) Login(c echo.Context) error {
	var form LoginForm
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	ctx := c.Request().Context()
	userID, err := h.auth.Validate(ctx, form.Username, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.sessions.SetFlash(c, i18n.T(ctx, "flash_login_failed"))
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		return respondError(c, err)
	}

	if err := h.sessions.Create(c, userID); err != nil {
		return respondError(c, err)
	}

	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// Dashboard greets the logged-in administrator.
func (h *AdminHandlers) Dashboard(c echo.Context) error {
	userID, ok := h.sessions.UserID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	user, err := h.repo.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta http-equiv="content-type" content="text/html; charset=utf-8">
    <title>Admin dashboard</title>
</head>
<body>
    <p>Welcome %s!</p>
    <p>Available actions:</p>
    <ol>
        <li><a href="/admin/password">Change password</a></li>
        <li>
            <form name="logoutForm" action="/admin/logout" method="post">
                <input type="submit" value="Logout">
            </form>
        </li>
    </ol>
</body>
</html>`, html.EscapeString(user.Username))

	return c.HTML(http.StatusOK, page)
}

// Logout destroys the session.
func (h *AdminHandlers) Logout(c echo.Context) error {
	h.sessions.Destroy(c)
	h.sessions.SetFlash(c, i18n.T(c.Request().Context(), "flash_logged_out"))
	return c.Redirect(http.StatusSeeOther, "/login")
}

// PasswordForm is the form body of POST /admin/password.
type PasswordForm struct {
	CurrentPassword  string `form:"current_password"`
	NewPassword      string `form:"new_password"`
	NewPasswordCheck string `form:"new_password_check"`
}

// PasswordPage renders the change-password form.
func (h *AdminHandlers) PasswordPage(c echo.Context) error {
	if _, ok := h.sessions.UserID(c); !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	flash := ""
	if msg := h.sessions.PopFlash(c); msg != "" {
		flash = fmt.Sprintf("<p><i>%s</i></p>", html.EscapeString(msg))
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta http-equiv="content-type" content="text/html; charset=utf-8">
    <title>Change password</title>
</head>
<body>
    %s
    <form action="/admin/password" method="post">
        <label>Current password
            <input type="password" placeholder="Enter current password" name="current_password">
        </label>
        <label>New password
            <input type="password" placeholder="Enter new password" name="new_password">
        </label>
        <label>Confirm new password
            <input type="password" placeholder="Type the new password again" name="new_password_check">
        </label>
        <button type="submit">Change password</button>
    </form>
    <p><a href="/admin/dashboard">&lt;- Back</a></p>
</body>
</html>`, flash)

	return c.HTML(http.StatusOK, page)
}

// ChangePassword verifies the current password and stores the new one.
func (h *AdminHandlers) ChangePassword(c echo.Context) error {
	userID, ok := h.sessions.UserID(c)
	if !ok {
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	var form PasswordForm
	if err := c.Bind(&form); err != nil {
		return c.String(http.StatusBadRequest, msgMalformedInput)
	}

	ctx := c.Request().Context()

	if form.NewPassword != form.NewPasswordCheck {
		h.sessions.SetFlash(c, i18n.T(ctx, "flash_password_mismatch"))
		return c.Redirect(http.StatusSeeOther, "/admin/password")
	}

	user, err := h.repo.GetUserByID(ctx, userID)
	if err != nil {
		return respondError(c, err)
	}

	if _, err := h.auth.Validate(ctx, user.Username, form.CurrentPassword); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.sessions.SetFlash(c, i18n.T(ctx, "flash_current_password_wrong"))
			return c.Redirect(http.StatusSeeOther, "/admin/password")
		}
		return respondError(c, err)
	}

	if err := h.auth.ChangePassword(ctx, userID, form.NewPassword); err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			h.sessions.SetFlash(c, i18n.T(ctx, "flash_password_length"))
			return c.Redirect(http.StatusSeeOther, "/admin/password")
		}
		return respondError(c, err)
	}

	h.sessions.SetFlash(c, i18n.T(ctx, "flash_password_changed"))
	return c.Redirect(http.StatusSeeOther, "/admin/password")
}
