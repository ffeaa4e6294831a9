// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage, mail delivery and the HTTP
// surface together and runs the Echo server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"

	"codeberg.org/oliverandrich/newsletter/internal/config"
	"codeberg.org/oliverandrich/newsletter/internal/database"
	"codeberg.org/oliverandrich/newsletter/internal/handlers"
	"codeberg.org/oliverandrich/newsletter/internal/i18n"
	"codeberg.org/oliverandrich/newsletter/internal/models"
	"codeberg.org/oliverandrich/newsletter/internal/repository"
	"codeberg.org/oliverandrich/newsletter/internal/services/auth"
	"codeberg.org/oliverandrich/newsletter/internal/services/email"
	"codeberg.org/oliverandrich/newsletter/internal/services/newsletter"
	"codeberg.org/oliverandrich/newsletter/internal/services/session"
	"codeberg.org/oliverandrich/newsletter/internal/services/subscription"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database (migrations run on open)
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)

	gateway, err := email.NewSMTPGateway(&cfg.SMTP)
	if err != nil {
		return fmt.Errorf("failed to set up mail gateway: %w", err)
	}

	sessions, err := session.NewManager(&cfg.Session, isHTTPS(cfg))
	if err != nil {
		return fmt.Errorf("failed to set up sessions: %w", err)
	}

	authSvc := auth.NewService(repo)
	subs := subscription.NewService(repo, gateway, cfg.Server.BaseURL)
	news := newsletter.NewService(repo, authSvc, gateway)

	if err := ensureAdmin(ctx, repo, &cfg.Admin); err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg)
	setupRoutes(e, repo, authSvc, subs, news, sessions)

	return startWithGracefulShutdown(e, cfg)
}

func setupRoutes(
	e *echo.Echo,
	repo *repository.Repository,
	authSvc *auth.Service,
	subs *subscription.Service,
	news *newsletter.Service,
	sessions *session.Manager,
) {
	subscriptions := handlers.NewSubscriptions(subs)
	newsletters := handlers.NewNewsletters(news, sessions)
	admin := handlers.NewAdmin(repo, authSvc, sessions)

	e.GET("/health", handlers.Health)

	e.POST("/subscriptions", subscriptions.Subscribe)
	e.GET("/subscriptions/confirm", subscriptions.Confirm)

	e.POST("/newsletters", newsletters.Publish)

	e.GET("/login", admin.LoginPage)
	e.POST("/login", admin.Login)

	g := e.Group("/admin", requireSession(sessions))
	g.GET("/dashboard", admin.Dashboard)
	g.POST("/logout", admin.Logout)
	g.GET("/password", admin.PasswordPage)
	g.POST("/password", admin.ChangePassword)
	g.POST("/newsletters", newsletters.PublishAdmin)
}

// ensureAdmin creates the configured administrator account on first start.
// The seeding only runs against an empty users table, so a changed config
// value never silently overwrites an existing account.
func ensureAdmin(ctx context.Context, repo *repository.Repository, cfg *config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}

	count, err := repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     cfg.Username,
		PasswordHash: hash,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return err
	}

	slog.Info("administrator_seeded", "username", cfg.Username)
	return nil
}

func isHTTPS(cfg *config.Config) bool {
	return len(cfg.Server.BaseURL) >= 8 && cfg.Server.BaseURL[:8] == "https://"
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
