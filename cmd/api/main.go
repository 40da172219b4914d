package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/api"
	"github.com/Freeeeeet/wellness_api/internal/app"
	"github.com/Freeeeeet/wellness_api/internal/breaker"
	"github.com/Freeeeeet/wellness_api/internal/calendar"
	"github.com/Freeeeeet/wellness_api/internal/callflow"
	"github.com/Freeeeeet/wellness_api/internal/calltransport"
	"github.com/Freeeeeet/wellness_api/internal/config"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
	"github.com/Freeeeeet/wellness_api/internal/presence"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
	"github.com/Freeeeeet/wellness_api/internal/repository"
	"github.com/Freeeeeet/wellness_api/internal/service"
	"github.com/Freeeeeet/wellness_api/internal/unread"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateAPI(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, "api")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewPool(ctx, cfg.GetDBDSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	migrator, err := app.NewMigrator(pool, logger)
	if err != nil {
		logger.Fatal("Failed to create migrator", zap.Error(err))
	}
	if err := migrator.Run(ctx); err != nil {
		logger.Fatal("Failed to apply migrations", zap.Error(err))
	}
	_ = migrator.Close()

	// Репозитории
	users := repository.NewUserRepository(pool)
	windows := repository.NewAvailabilityRepository(pool)
	appointments := repository.NewAppointmentRepository(pool)
	calls := repository.NewCallSessionRepository(pool)
	payments := repository.NewPaymentRepository(pool)
	presenceDB := repository.NewPresenceRepository(pool)
	messages := repository.NewAwayMessageRepository(pool)

	// Статусы: redis при нескольких инстансах, иначе память процесса
	hub := pubsub.NewHub[model.Presence](64)
	defer hub.Close()

	var cache presence.Cache
	if cfg.RedisAddr != "" {
		rdb, err := presence.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()

		redisCache := presence.NewRedisCache(rdb, logger)
		go func() {
			if err := redisCache.Relay(ctx, hub); err != nil {
				logger.Error("Presence relay failed", zap.Error(err))
			}
		}()
		cache = redisCache
	} else {
		logger.Warn("REDIS_ADDR not set, presence is kept in process memory")
		cache = presence.NewMemoryCache(hub)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NatsURL != "" {
		nc, err := events.Connect(cfg.NatsURL, "wellness-api", logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Drain()
		publisher = events.NewNatsPublisher(nc, logger)
	} else {
		logger.Warn("NATS_URL not set, domain events are not published")
	}

	var syncer calendar.Syncer = calendar.NoopSyncer{}
	if cfg.GoogleCredentialsFile != "" {
		google, err := calendar.NewGoogleSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GoogleCalendarID)
		if err != nil {
			logger.Fatal("Failed to init Google Calendar", zap.Error(err))
		}
		syncer = google
	}

	processor := payment.NewProcessor(newGateway(cfg), logger)
	transport := calltransport.NewTokenTransport(cfg.CallTokenSecret, cfg.CallTokenTTL)
	tracker := unread.NewTracker(messages, breaker.New(breaker.DefaultThreshold, breaker.DefaultWindow), logger)

	// Сервисы
	presenceSvc := service.NewPresenceService(presenceDB, cache, users, publisher, logger)
	callSvc := service.NewCallService(users, calls, payments, processor, transport, presenceSvc, callflow.NewManager(),
		publisher, service.CallConfig{AllowTestCalls: cfg.EnableTestCalls, DefaultCurrency: cfg.DefaultCurrency}, logger)
	appointmentSvc := service.NewAppointmentService(users, windows, appointments, payments, processor, syncer, publisher, logger)

	svc := api.Services{
		Experts:      service.NewExpertService(users, presenceDB, logger),
		Availability: service.NewAvailabilityService(users, windows, appointments, logger),
		Appointments: appointmentSvc,
		Calls:        callSvc,
		Payments:     service.NewPaymentService(payments, callSvc, appointmentSvc),
		Presence:     presenceSvc,
		Messages:     service.NewMessageService(messages, users, tracker, publisher, logger),
	}

	go tracker.Run(ctx, unread.PollInterval)

	scheduler := app.NewScheduler(logger,
		app.Job{Name: "sweep_stale_calls", Interval: app.PendingSweepInterval, Run: callSvc.SweepStalePending},
		app.Job{Name: "end_expired_calls", Interval: app.ExpirySweepInterval, Run: callSvc.EndExpired},
		app.Job{Name: "release_unpaid_appointments", Interval: app.PendingSweepInterval, Run: appointmentSvc.ReleaseUnpaid},
		app.Job{Name: "complete_appointments", Interval: app.CompletionInterval, Run: appointmentSvc.CompleteDue},
	)
	scheduler.Start(ctx)

	router := api.NewRouter(svc, hub, api.Options{
		JWTSecret:          cfg.JWTSecret,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Development:        !cfg.IsProduction(),
	}, logger)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting HTTP API",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("environment", cfg.Environment),
			zap.String("payments", cfg.PaymentProvider),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newGateway(cfg *config.Config) payment.Gateway {
	switch cfg.PaymentProvider {
	case config.ProviderStripe:
		return payment.NewStripeGateway(cfg.StripeSecretKey)
	case config.ProviderFake:
		return payment.NewFakeGateway()
	default:
		return payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	}
}
