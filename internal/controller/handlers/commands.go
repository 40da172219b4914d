package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/controller/formatting"
	"github.com/Freeeeeet/wellness_api/internal/controller/keyboard"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

// UpcomingDays горизонт списка /appointments
const UpcomingDays = 7

const helpText = "📚 Commands:\n\n" +
	"/status - Show your status with quick buttons\n" +
	"/available - Ready to take calls\n" +
	"/busy - In a session, no new calls\n" +
	"/away - Stepped away, clients can leave a message\n" +
	"/offline - Not working now\n" +
	"/appointments - Appointments for the next 7 days\n" +
	"/help - Show this help"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.StartText(ctx, update.Message.From.ID), nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleStatus текущий статус и кнопки для смены
func (h *Handlers) HandleStatus(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text, current, ok := h.StatusText(ctx, update.Message.From.ID)
	var markup models.ReplyMarkup
	if ok {
		markup = keyboard.Presence(current)
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, markup)
}

// HandleSetStatus обработчик для /available, /busy, /away, /offline
func (h *Handlers) HandleSetStatus(status model.PresenceStatus) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if update.Message == nil {
			return
		}
		text, _ := h.SetStatus(ctx, update.Message.From.ID, status)
		h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
	}
}

// HandleAppointments обрабатывает команду /appointments
func (h *Handlers) HandleAppointments(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, h.AppointmentsText(ctx, update.Message.From.ID), nil)
}

func (h *Handlers) StartText(ctx context.Context, telegramID int64) string {
	expert, errText := h.requireExpert(ctx, telegramID)
	if expert == nil {
		return errText
	}
	return fmt.Sprintf("👋 Hi, %s!\n\n"+
		"You will get a message here when a client requests a call, books an appointment "+
		"or leaves you a message.\n\n%s", expert.FullName, helpText)
}

// StatusText описание текущего статуса; ok=false если эксперт не найден
func (h *Handlers) StatusText(ctx context.Context, telegramID int64) (string, model.PresenceStatus, bool) {
	expert, errText := h.requireExpert(ctx, telegramID)
	if expert == nil {
		return errText, "", false
	}

	p, err := h.presence.Get(ctx, expert.ID)
	if err != nil {
		h.logger.Error("Failed to get presence", zap.String("expert_id", expert.ID.String()), zap.Error(err))
		return failureText, "", false
	}
	return "Your status: " + formatting.PresenceDisplay(p.Status).String(), p.Status, true
}

// SetStatus меняет статус эксперта и возвращает ответ для чата
func (h *Handlers) SetStatus(ctx context.Context, telegramID int64, status model.PresenceStatus) (string, bool) {
	expert, errText := h.requireExpert(ctx, telegramID)
	if expert == nil {
		return errText, false
	}

	p, err := h.presence.Set(ctx, expert.ID, status)
	if err != nil {
		h.logger.Error("Failed to set presence from Telegram",
			zap.String("expert_id", expert.ID.String()),
			zap.String("status", string(status)),
			zap.Error(err),
		)
		return failureText, false
	}

	h.logger.Info("Presence set from Telegram",
		zap.String("expert_id", expert.ID.String()),
		zap.String("status", string(p.Status)),
	)
	return "Status updated: " + formatting.PresenceDisplay(p.Status).String(), true
}

func (h *Handlers) AppointmentsText(ctx context.Context, telegramID int64) string {
	expert, errText := h.requireExpert(ctx, telegramID)
	if expert == nil {
		return errText
	}

	list, err := h.appointments.Upcoming(ctx, expert.ID, UpcomingDays)
	if err != nil {
		h.logger.Error("Failed to list upcoming appointments", zap.String("expert_id", expert.ID.String()), zap.Error(err))
		return failureText
	}
	if len(list) == 0 {
		return "📭 No appointments in the next 7 days."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🗓 %s in the next 7 days:\n", formatting.Plural(len(list), "appointment", "appointments"))
	for _, a := range list {
		sb.WriteString("\n")
		sb.WriteString(FormatAppointment(a))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
