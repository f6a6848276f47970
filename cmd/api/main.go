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

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/billdesk/server/internal/auth"
	"github.com/billdesk/server/internal/config"
	"github.com/billdesk/server/internal/db"
	httphandler "github.com/billdesk/server/internal/http"
	"github.com/billdesk/server/internal/http/handlers"
	"github.com/billdesk/server/internal/invoice"
	"github.com/billdesk/server/internal/logger"
	"github.com/billdesk/server/internal/notify"
	"github.com/billdesk/server/internal/repo"
	_ "github.com/lib/pq"
)

func main() {
	// Load .env from CWD if present (env vars override)
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.DevMode)
	defer logger.Sync()
	log := logger.L()

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to open database", zap.Error(err))
	}
	defer database.Close()

	if err := runMigrations(database); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	employeeRepo := repo.NewEmployeeRepo(database)
	otpRepo := repo.NewOtpRepo(database)
	sessionRepo := repo.NewSessionRepo(database)
	sequenceRepo := repo.NewSequenceRepo(database)
	invoiceRepo := repo.NewInvoiceRepo(database)

	// The migration only creates the table; the counter row is seeded here so
	// INVOICE_SEQUENCE_START applies on first boot. An existing counter is
	// never reset.
	if err := sequenceRepo.EnsureSeeded(ctx, cfg.SequenceStart); err != nil {
		log.Fatal("failed to seed invoice sequence", zap.Error(err))
	}

	// Services
	var notifier notify.Notifier
	if cfg.SMSConfigured() {
		notifier = notify.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
	} else {
		notifier = &notify.LogNotifier{DevMode: cfg.DevMode}
	}

	otpService := auth.NewOtpService(otpRepo, cfg.OTPSalt)
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewService(otpService, jwtService, employeeRepo, sessionRepo, notifier, cfg.CountryPrefix)
	invoiceService := invoice.NewService(invoiceRepo, cfg.BankDetails)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	invoiceHandler := handlers.NewInvoiceHandler(invoiceService, invoice.NewPDFRenderer(""))

	router := httphandler.NewRouter(authHandler, invoiceHandler, jwtService, sessionRepo, employeeRepo)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// runMigrations runs database migrations using goose
func runMigrations(database *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	migrationDir := "internal/db/migrations"
	if info, err := os.Stat(migrationDir); err != nil || !info.IsDir() {
		return fmt.Errorf("migrations directory not found (run from the repo root)")
	}

	if err := goose.Up(database, migrationDir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
