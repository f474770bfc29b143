package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/jitsports/sportsroom/internal/booking"
	"github.com/jitsports/sportsroom/internal/clock"
	"github.com/jitsports/sportsroom/internal/http/handlers"
	"github.com/jitsports/sportsroom/internal/otp"
	"github.com/jitsports/sportsroom/internal/ratelimit"
	"github.com/jitsports/sportsroom/internal/repository"
	"github.com/jitsports/sportsroom/internal/schedule"
	"github.com/jitsports/sportsroom/pkg/config"
	"github.com/jitsports/sportsroom/pkg/database"
	"github.com/jitsports/sportsroom/pkg/events"
	"github.com/jitsports/sportsroom/pkg/logger"
	mw "github.com/jitsports/sportsroom/pkg/middleware"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
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

	sched, err := schedule.New(cfg.Schedule.Timezone, cfg.Schedule.HorizonDays)
	if err != nil {
		logger.Error("Failed to build schedule", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited()
	if opt, err := redis.ParseURL(cfg.Redis.URL); err == nil {
		limiter = ratelimit.NewRedisLimiter(redis.NewClient(opt), cfg.OTP.RateLimit, cfg.OTP.RateLimitWindow)
	} else {
		logger.Warn("Invalid redis URL, code requests are unthrottled", "error", err)
	}

	// Repositories
	identityRepo := repository.NewIdentityRepository(pool)
	codeRepo := repository.NewCodeRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	facilityRepo := repository.NewFacilityRepository(pool)

	// Services
	clk := clock.System()
	otpService := otp.NewService(identityRepo, codeRepo, limiter, otp.NewDigitGenerator(), clk, eventBus, cfg)
	bookingService := booking.NewService(bookingRepo, facilityRepo, identityRepo, sched, clk, eventBus)

	// Handlers
	authHandler := handlers.NewAuthHandler(otpService)
	bookingsHandler := handlers.NewBookingsHandler(bookingService)

	// Router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.Health)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/request-code", authHandler.RequestCode)
		r.Post("/verify", authHandler.VerifyCode)
	})

	r.Route("/facilities", func(r chi.Router) {
		r.Get("/", bookingsHandler.ListFacilities)
		r.Get("/{slug}/availability", bookingsHandler.ListAvailability)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Use(handlers.RequireSession(cfg.Auth.JWTSecret))
		r.Post("/", bookingsHandler.Reserve)
		r.Get("/", bookingsHandler.ListBookings)
		r.Delete("/{id}", bookingsHandler.Cancel)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down api service...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Api service shutdown error", "error", err)
		}
	}()

	logger.Info("Starting api service", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Api service error", "error", err)
		os.Exit(1)
	}
}
