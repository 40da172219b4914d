package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/repository/memstore"
	"github.com/Freeeeeet/wellness_api/internal/service"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*bot.SendMessageParams
	err  error
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, params)
	return &models.Message{ID: len(s.sent)}, nil
}

func newNotifier(t *testing.T) (*Notifier, *fakeSender, *memstore.Users) {
	t.Helper()
	users := memstore.NewUsers()
	sender := &fakeSender{}
	experts := service.NewExpertService(users, memstore.NewPresence(), zap.NewNop())
	return New(sender, experts, zap.NewNop()), sender, users
}

func TestDeliverCallRequest(t *testing.T) {
	n, sender, users := newNotifier(t)
	chatID := int64(424242)
	expert := users.Add(&model.User{Role: model.RoleExpert, FullName: "Dr. Meera", IsActive: true, TelegramID: &chatID})

	err := n.Deliver(context.Background(), events.Event{
		Type:     events.CallRequested,
		ExpertID: expert.ID,
		CallKind: "video",
		Minutes:  30,
		Amount:   90000,
		Currency: "INR",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	require.Equal(t, chatID, sender.sent[0].ChatID)
	require.Contains(t, sender.sent[0].Text, "Incoming video call request")
	require.Contains(t, sender.sent[0].Text, "30 min")
	require.Contains(t, sender.sent[0].Text, "₹900.00")
}

func TestDeliverSkips(t *testing.T) {
	n, sender, users := newNotifier(t)
	unlinked := users.Add(&model.User{Role: model.RoleExpert, IsActive: true})
	ctx := context.Background()

	// эксперт без Telegram
	require.NoError(t, n.Deliver(ctx, events.Event{Type: events.CallEnded, ExpertID: unlinked.ID}))
	// эксперт не найден
	require.NoError(t, n.Deliver(ctx, events.Event{Type: events.CallEnded, ExpertID: uuid.New()}))
	// о своих действиях эксперт не уведомляется
	require.NoError(t, n.Deliver(ctx, events.Event{Type: events.ExpertStatusChanged, ExpertID: unlinked.ID}))
	require.NoError(t, n.Deliver(ctx, events.Event{Type: events.CallAccepted, ExpertID: unlinked.ID}))

	require.Empty(t, sender.sent)
}

func TestDeliverSendFailure(t *testing.T) {
	n, sender, users := newNotifier(t)
	chatID := int64(7)
	expert := users.Add(&model.User{Role: model.RoleExpert, IsActive: true, TelegramID: &chatID})
	sender.err = errors.New("bot was blocked by the user")

	err := n.Deliver(context.Background(), events.Event{Type: events.MessageReceived, ExpertID: expert.ID, Text: "hello"})
	require.ErrorContains(t, err, "blocked")
}

func TestRender(t *testing.T) {
	starts := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	text, ok := Render(events.Event{Type: events.AppointmentConfirmed, StartsAt: &starts, Amount: 180000, Currency: "INR"})
	require.True(t, ok)
	require.Contains(t, text, "Mon, 02 Mar 2026 10:00 UTC")
	require.Contains(t, text, "₹1800.00")

	text, ok = Render(events.Event{Type: events.AppointmentCancelled, StartsAt: &starts, Text: "cancelled by user"})
	require.True(t, ok)
	require.Contains(t, text, "Reason: cancelled by user")

	text, ok = Render(events.Event{Type: events.CallRequested, CallKind: "voice", Minutes: 5, IsTest: true})
	require.True(t, ok)
	require.Contains(t, text, "Test voice call")

	_, ok = Render(events.Event{Type: events.AppointmentBooked})
	require.False(t, ok, "unpaid bookings are not announced")
}
