// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/codr1/Escapade/internal/api/auth"
	"github.com/codr1/Escapade/internal/api/booking"
	"github.com/codr1/Escapade/internal/api/staff"
	"github.com/codr1/Escapade/internal/bookings"
	"github.com/codr1/Escapade/internal/config"
	"github.com/codr1/Escapade/internal/db"
	"github.com/codr1/Escapade/internal/email"
	"github.com/codr1/Escapade/internal/metrics"
	"github.com/codr1/Escapade/internal/ratelimit"
	"github.com/codr1/Escapade/internal/scheduler"
	"github.com/codr1/Escapade/internal/users"
)

const defaultShutdownTimeout = 30 * time.Second

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func setupLogger(cfg *config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Features.EnableDebug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if cfg.App.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

// newMailer returns nil when SES is not configured so callers can skip email.
func newMailer(cfg *config.Config) email.EmailSender {
	if !cfg.Email.Enabled() {
		log.Warn().Msg("SES not configured; booking emails disabled")
		return nil
	}
	client, err := email.NewSESClient(cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize SES client; booking emails disabled")
		return nil
	}
	return client
}

func main() {
	cfg, err := config.Load(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	sessions := auth.NewSessionStore(cfg.Auth.SessionTTL)
	defer sessions.Close()
	auth.InitHandlers(users.NewService(database, cfg.Auth.PasswordHashCost), sessions, cfg.SecureCookies())

	mailer := newMailer(cfg)
	bookingService := bookings.NewService(database, mailer, bookings.OptionsFromConfig(cfg))

	var bookingMetrics *metrics.BookingMetrics
	if cfg.Features.EnableMetrics {
		bookingMetrics = metrics.NewBookingMetrics(prometheus.DefaultRegisterer)
	}
	booking.InitHandlers(bookingService, bookingMetrics)
	staff.InitHandlers(bookingService)

	submissionLimiter := ratelimit.New(&ratelimit.Config{
		Cooldown:           cfg.RateLimit.SubmissionCooldown,
		MaxPerEmailPerHour: cfg.RateLimit.MaxPerEmailPerHour,
		MaxPerIPPerHour:    cfg.RateLimit.MaxPerIPPerHour,
	})
	defer submissionLimiter.Close()
	booking.InitRateLimiter(submissionLimiter, cfg.RateLimit.TrustProxy)

	if err := scheduler.Init(bookingService.Location()); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	reminders := &scheduler.ReminderJob{
		Database: database,
		Bookings: bookingService,
		Sender:   mailer,
		Metrics:  bookingMetrics,
	}
	if err := scheduler.RegisterReminderJobs(reminders, cfg.Scheduler.ReminderCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register reminder jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Create server instance
	server := newServer(cfg)
	shutdownTimeout := time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", int(defaultShutdownTimeout/time.Second))) * time.Second

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Failed to stop scheduler")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
