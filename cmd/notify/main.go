package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jitsports/sportsroom/internal/mailer"
	"github.com/jitsports/sportsroom/internal/repository"
	"github.com/jitsports/sportsroom/pkg/config"
	"github.com/jitsports/sportsroom/pkg/database"
	"github.com/jitsports/sportsroom/pkg/events"
	"github.com/jitsports/sportsroom/pkg/logger"
	mw "github.com/jitsports/sportsroom/pkg/middleware"
)

// The notify worker drains notification events off NATS and turns them into
// emails. Delivery failures are logged and dropped; they are never visible to
// the operation that triggered them.
func main() {
	cfg := config.Load()

	pool, err := database.Connect(context.Background(), cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	mail := buildMailer(cfg)

	// Periodic sweep of stale codes. Correctness never depends on it; expiry
	// is checked at verification time.
	sweepDone := make(chan struct{})
	go sweepExpiredCodes(repository.NewCodeRepository(pool), sweepDone)

	if err := eventBus.QueueSubscribe(events.CodeIssued, "notify", func(msg *events.Message) {
		var ev events.CodeIssuedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("Bad code issued payload", "error", err)
			return
		}
		if err := mail.SendCode(ev.Email, ev.Code, ev.ExpiresAt); err != nil {
			logger.Error("Failed to send code email", "error", err, "to", ev.Email)
		}
	}); err != nil {
		logger.Error("Failed to subscribe", "subject", events.CodeIssued, "error", err)
		os.Exit(1)
	}

	if err := eventBus.QueueSubscribe(events.BookingConfirmed, "notify", func(msg *events.Message) {
		var ev events.BookingConfirmedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("Bad booking confirmed payload", "error", err)
			return
		}
		if err := mail.SendBookingConfirmation(ev.Email, ev.Facility, ev.SlotStart); err != nil {
			logger.Error("Failed to send confirmation email", "error", err, "booking_id", ev.BookingID)
		}
	}); err != nil {
		logger.Error("Failed to subscribe", "subject", events.BookingConfirmed, "error", err)
		os.Exit(1)
	}

	if err := eventBus.QueueSubscribe(events.BookingCancelled, "notify", func(msg *events.Message) {
		var ev events.BookingCancelledEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			logger.Error("Bad booking cancelled payload", "error", err)
			return
		}
		if err := mail.SendBookingCancellation(ev.Email, ev.Facility, ev.SlotStart); err != nil {
			logger.Error("Failed to send cancellation email", "error", err, "booking_id", ev.BookingID)
		}
	}); err != nil {
		logger.Error("Failed to subscribe", "subject", events.BookingCancelled, "error", err)
		os.Exit(1)
	}

	// Health endpoint so orchestrators can probe the worker.
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("notify"))
	r.Use(mw.Logging)
	r.Use(mw.Health)

	srv := &http.Server{
		Addr:    ":8086",
		Handler: r,
	}

	go func() {
		logger.Info("Starting notify worker", "port", "8086")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Notify worker error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down notify worker...")
	close(sweepDone)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Notify worker shutdown error", "error", err)
	}
}

func sweepExpiredCodes(codes repository.CodeRepository, done <-chan struct{}) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deleted, err := codes.DeleteExpired(context.Background())
			if err != nil {
				logger.Error("Expired code sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("Swept expired codes", "deleted", deleted)
			}
		}
	}
}

func buildMailer(cfg *config.Config) mailer.Service {
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		logger.Warn("Invalid schedule timezone, emails use UTC", "error", err)
		loc = time.UTC
	}

	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, "Sports Room", cfg.Email.SMTPFrom, loc)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom, cfg.Email.SMTPUser, cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS, loc,
		)
	}
}
