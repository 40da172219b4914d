package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/app"
	"github.com/Freeeeeet/wellness_api/internal/calendar"
	"github.com/Freeeeeet/wellness_api/internal/config"
	"github.com/Freeeeeet/wellness_api/internal/controller"
	"github.com/Freeeeeet/wellness_api/internal/controller/notify"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/presence"
	"github.com/Freeeeeet/wellness_api/internal/repository"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateNotifier(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, "notifier")
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := app.NewPool(ctx, cfg.GetDBDSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	nc, err := events.Connect(cfg.NatsURL, "wellness-notifier", logger)
	if err != nil {
		logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Drain()

	// Статус из бота должен увидеть API, поэтому кэш общий через redis
	var cache presence.Cache
	if cfg.RedisAddr != "" {
		rdb, err := presence.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer rdb.Close()
		cache = presence.NewRedisCache(rdb, logger)
	} else {
		logger.Warn("REDIS_ADDR not set, status changes from Telegram reach the API only after its cache misses")
		cache = presence.NewMemoryCache(nil)
	}

	users := repository.NewUserRepository(pool)
	presenceDB := repository.NewPresenceRepository(pool)
	publisher := events.NewNatsPublisher(nc, logger)

	experts := service.NewExpertService(users, presenceDB, logger)
	presenceSvc := service.NewPresenceService(presenceDB, cache, users, publisher, logger)
	// только чтение записей: без платёжного процессора и календаря
	appointments := service.NewAppointmentService(
		users,
		repository.NewAvailabilityRepository(pool),
		repository.NewAppointmentRepository(pool),
		repository.NewPaymentRepository(pool),
		nil,
		calendar.NoopSyncer{},
		publisher,
		logger,
	)

	b, err := bot.New(cfg.TelegramToken)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	botController := controller.NewBotController(b, experts, presenceSvc, appointments, logger)
	if err := botController.RegisterHandlers(ctx); err != nil {
		logger.Warn("Bot commands menu not set", zap.Error(err))
	}

	subscriber := events.NewSubscriber(nc, logger)
	defer subscriber.Close()
	for _, subject := range notify.Subjects {
		if err := subscriber.Handle(ctx, subject, botController.Notifier().Handle); err != nil {
			logger.Fatal("Failed to subscribe", zap.String("subject", subject), zap.Error(err))
		}
	}

	logger.Info("Notifier started", zap.String("environment", cfg.Environment))
	if err := botController.Start(ctx); err != nil {
		logger.Error("Bot stopped with error", zap.Error(err))
	}
	logger.Info("Notifier exited")
}
