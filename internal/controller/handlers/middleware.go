package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

const (
	notLinkedText = "❌ This Telegram account is not linked to an expert profile.\n\n" +
		"Ask an administrator to add your Telegram ID to your profile."
	failureText = "❌ Something went wrong. Please try again later."
)

// requireExpert эксперт, привязанный к отправителю. Возвращает текст ошибки
// для пользователя, если эксперта нет.
func (h *Handlers) requireExpert(ctx context.Context, telegramID int64) (*model.User, string) {
	expert, err := h.experts.GetByTelegram(ctx, telegramID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		return nil, notLinkedText
	case err != nil:
		h.logger.Error("Failed to get expert", zap.Int64("telegram_id", telegramID), zap.Error(err))
		return nil, failureText
	}
	return expert, ""
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
