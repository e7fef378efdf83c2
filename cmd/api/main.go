package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"rsvpdesk/config"
	_ "rsvpdesk/docs"
	"rsvpdesk/internal/adapters/auth"
	"rsvpdesk/internal/adapters/email"
	deliveryhttp "rsvpdesk/internal/delivery/http"
	"rsvpdesk/internal/delivery/http/controllers"
	"rsvpdesk/internal/delivery/http/middleware"
	"rsvpdesk/internal/repository/postgres"
	"rsvpdesk/internal/services"
)

const (
	serviceTimeout = 5 * time.Second
	bcryptCost     = 10
)

// @title RSVPdesk API
// @version 1.0
// @description Event management and capacity-aware RSVP service.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Repositories
	eventRepo := postgres.NewEventRepository(db)
	rsvpRepo := postgres.NewRSVPRepository(db)
	capacityRepo := postgres.NewCapacityRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Adapters
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailProvider,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}
	renderer := email.NewTemplateRenderer()
	hasher := auth.NewBcryptHasher(bcryptCost)
	tokenCodec := auth.NewJWTCodec(cfg.JWTSecret)

	// Services
	emailService := services.NewEmailService(mailer, renderer)
	eventService := services.NewEventService(eventRepo, capacityRepo, serviceTimeout)
	rsvpService := services.NewRSVPService(eventRepo, rsvpRepo, capacityRepo, emailService, serviceTimeout)
	authService := services.NewAuthService(userRepo, hasher, tokenCodec, emailService, cfg.TokenExpiry)

	// Controllers
	eventController := controllers.NewEventController(logger, eventService)
	rsvpController := controllers.NewRSVPController(logger, rsvpService, eventService)
	authController := controllers.NewAuthController(logger, authService)

	mux := deliveryhttp.NewRouter(eventController, rsvpController, authController, tokenCodec, logger)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.AllowedOrigins, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
