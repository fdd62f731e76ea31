// Package main is the entry point for the case-management portal API.
// It wires configuration, the database, the security services and all
// HTTP routes.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kafkasder-portal/kafkas-sub000/internal/config"
	"github.com/kafkasder-portal/kafkas-sub000/internal/database"
	"github.com/kafkasder-portal/kafkas-sub000/internal/handlers"
	"github.com/kafkasder-portal/kafkas-sub000/internal/middleware"
	"github.com/kafkasder-portal/kafkas-sub000/internal/repository"
	"github.com/kafkasder-portal/kafkas-sub000/internal/security"
	"github.com/kafkasder-portal/kafkas-sub000/internal/services"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	sec := cfg.Security

	if err := database.Connect(context.Background(), database.Config{URL: cfg.DatabaseURL}); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.MigrationsURL, cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	securityLogger := security.NewLogger()

	// Core security services. The audit repository doubles as the local
	// sink behind the fire-and-forget audit logger.
	sessions := security.NewSessionManager(sec.SessionTTL)
	csrf := security.NewCSRFManager(sec.CSRFTokenTTL)
	auditRepo := repository.NewAuditRepository()
	audit := security.NewAuditLogger(securityLogger, sec, auditRepo)
	monitor := security.NewActivityMonitor(securityLogger, sec, audit,
		&security.Teardown{Sessions: sessions, Tokens: csrf})

	secure := middleware.NewSecurityMiddleware(securityLogger, sec, sessions, csrf, audit, monitor)
	validator := security.NewValidationService(sec)
	authService := services.NewAuthService(sec.BcryptCost)

	// Per-surface rate limiters.
	apiLimiter := security.NewRateLimiter(sec.APIMaxRequests, sec.APIWindow)
	formLimiter := security.NewRateLimiter(sec.FormMaxRequests, sec.FormWindow)

	authHandler := handlers.NewAuthHandler(authService, sessions, csrf, validator, secure, sec)

	app := fiber.New(fiber.Config{
		AppName: "kafkas-portal",
	})

	app.Use(recover.New())
	app.Use(secure.RequestLogger())
	app.Use(secure.SecureHeaders())
	app.Use(secure.RateLimit(apiLimiter, "api"))

	app.Post("/api/login",
		secure.RateLimit(formLimiter, "login"),
		authHandler.Login,
	)

	api := app.Group("/api",
		middleware.AuthRequired(sessions, sec.SessionCookieName),
		secure.CSRFProtection(),
	)
	api.Post("/logout", authHandler.Logout)

	securityLogger.Info("Server starting on " + cfg.ListenAddr)

	// Drain in-flight audit forwards on shutdown.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		_ = app.Shutdown()
	}()

	if err := app.Listen(cfg.ListenAddr); err != nil {
		securityLogger.Critical("Failed to start server", err)
		log.Fatalf("Failed to start server: %v", err)
	}
	audit.Flush()
}
