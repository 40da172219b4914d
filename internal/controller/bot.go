package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/controller/callbacks"
	"github.com/Freeeeeet/wellness_api/internal/controller/handlers"
	"github.com/Freeeeeet/wellness_api/internal/controller/notify"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	notifier        *notify.Notifier
	logger          *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	experts *service.ExpertService,
	presence *service.PresenceService,
	appointments *service.AppointmentService,
	logger *zap.Logger,
) *BotController {
	cmdHandlers := handlers.NewHandlers(experts, presence, appointments, logger)

	return &BotController{
		bot:             botInstance,
		handlers:        cmdHandlers,
		callbackHandler: callbacks.NewHandler(cmdHandlers, logger),
		notifier:        notify.New(botInstance, experts, logger),
		logger:          logger,
	}
}

// Notifier доставка событий из NATS в чаты экспертов
func (c *BotController) Notifier() *notify.Notifier {
	return c.notifier
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/status", bot.MatchTypeExact, c.handlers.HandleStatus)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/appointments", bot.MatchTypeExact, c.handlers.HandleAppointments)

	// Быстрая смена статуса
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/available", bot.MatchTypeExact, c.handlers.HandleSetStatus(model.PresenceAvailable))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/busy", bot.MatchTypeExact, c.handlers.HandleSetStatus(model.PresenceBusy))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/away", bot.MatchTypeExact, c.handlers.HandleSetStatus(model.PresenceAway))
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/offline", bot.MatchTypeExact, c.handlers.HandleSetStatus(model.PresenceOffline))

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "status", Description: "📍 My status"},
		{Command: "available", Description: "🟢 Ready for calls"},
		{Command: "busy", Description: "🔴 Busy"},
		{Command: "away", Description: "🟡 Away, take messages"},
		{Command: "offline", Description: "⚫️ Offline"},
		{Command: "appointments", Description: "🗓 Upcoming appointments"},
		{Command: "help", Description: "❓ Help"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start блокирует до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
