// Package notify доставляет доменные события экспертам в Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/controller/formatting"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

// Subjects события, о которых узнаёт эксперт
var Subjects = []string{"call.>", "appointment.>", "message.>"}

// Sender часть *bot.Bot, нужная нотификатору
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type Notifier struct {
	sender Sender
	users  UserLookup
	logger *zap.Logger
}

func New(sender Sender, users UserLookup, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, users: users, logger: logger}
}

// Handle обработчик для events.Subscriber
func (n *Notifier) Handle(ctx context.Context, ev events.Event) {
	if err := n.Deliver(ctx, ev); err != nil {
		n.logger.Error("Failed to notify expert",
			zap.String("event_type", string(ev.Type)),
			zap.String("expert_id", ev.ExpertID.String()),
			zap.Error(err),
		)
	}
}

// Deliver отправляет эксперту текст события. События без текста и эксперты
// без Telegram пропускаются без ошибки.
func (n *Notifier) Deliver(ctx context.Context, ev events.Event) error {
	text, ok := Render(ev)
	if !ok {
		return nil
	}

	expert, err := n.users.GetUser(ctx, ev.ExpertID)
	if apperr.Is(err, apperr.KindNotFound) {
		n.logger.Warn("Event for unknown expert", zap.String("expert_id", ev.ExpertID.String()))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expert: %w", err)
	}
	if expert.TelegramID == nil {
		n.logger.Debug("Expert has no Telegram linked", zap.String("expert_id", expert.ID.String()))
		return nil
	}

	if _, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: *expert.TelegramID,
		Text:   text,
	}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	n.logger.Info("Expert notified",
		zap.String("event_type", string(ev.Type)),
		zap.String("expert_id", expert.ID.String()),
	)
	return nil
}

// Render текст уведомления; ok=false для событий, о которых эксперт не уведомляется
func Render(ev events.Event) (string, bool) {
	switch ev.Type {
	case events.CallRequested:
		kind := formatting.CallKindDisplay(ev.CallKind)
		if ev.IsTest {
			return fmt.Sprintf("🧪 Test %s call request (%s).\nOpen the app to answer.",
				kind.Text, formatting.FormatDuration(ev.Minutes)), true
		}
		return fmt.Sprintf("%s Incoming %s call request\n⏱ %s · paid %s\n\nOpen the app to accept.",
			kind.Emoji, kind.Text,
			formatting.FormatDuration(ev.Minutes),
			formatting.FormatMoney(ev.Amount, ev.Currency)), true

	case events.CallCancelled:
		return withReason("❌ A call request was cancelled", ev.Text), true

	case events.CallEnded:
		return "✔️ Your call has ended.", true

	case events.AppointmentConfirmed:
		return "✅ New appointment" + startsAt(ev) + "\n💰 Paid " + formatting.FormatMoney(ev.Amount, ev.Currency), true

	case events.AppointmentCancelled:
		return withReason("❌ Appointment cancelled"+startsAt(ev), ev.Text), true

	case events.MessageReceived:
		return "✉️ New message from a client:\n\n" + ev.Text, true
	}
	return "", false
}

func startsAt(ev events.Event) string {
	if ev.StartsAt == nil {
		return ""
	}
	return "\n🗓 " + formatting.FormatDateTime(*ev.StartsAt)
}

func withReason(text, reason string) string {
	if reason = strings.TrimSpace(reason); reason == "" {
		return text
	}
	return text + "\nReason: " + reason
}
