package callbacks

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/controller/handlers"
	"github.com/Freeeeeet/wellness_api/internal/controller/keyboard"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

const Noop = "noop"

// Handler нажатия на inline кнопки
type Handler struct {
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewHandler(h *handlers.Handlers, logger *zap.Logger) *Handler {
	return &Handler{handlers: h, logger: logger}
}

// HandleCallbackQuery точка входа, зарегистрированная в боте
func (h *Handler) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	h.Route(ctx, b, update.CallbackQuery)
}

// Route распределяет callback query по обработчикам
func (h *Handler) Route(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery) {
	data := callback.Data

	h.logger.Info("Routing callback",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID))

	switch {
	case strings.HasPrefix(data, keyboard.PresencePrefix):
		h.handlePresence(ctx, b, callback, model.PresenceStatus(strings.TrimPrefix(data, keyboard.PresencePrefix)))
	case data == Noop:
		h.answer(ctx, b, callback.ID, "")
	default:
		h.logger.Warn("Unknown callback", zap.String("data", data))
		h.answer(ctx, b, callback.ID, "Unknown action")
	}
}

func (h *Handler) handlePresence(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, status model.PresenceStatus) {
	if !status.Valid() {
		h.answer(ctx, b, callback.ID, "Unknown status")
		return
	}

	text, ok := h.handlers.SetStatus(ctx, callback.From.ID, status)
	h.answer(ctx, b, callback.ID, text)
	if !ok {
		return
	}

	msg := callback.Message.Message
	if msg == nil {
		return
	}
	_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.ID,
		Text:        text,
		ReplyMarkup: keyboard.Presence(status),
	})
	if err != nil {
		h.logger.Warn("Failed to edit status message", zap.Error(err))
	}
}

func (h *Handler) answer(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		h.logger.Warn("Failed to answer callback", zap.Error(err))
	}
}
