package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/unread"
)

const MaxMessageLength = 2000

// UnreadCount предсказанное число непрочитанных и давность последней сверки
type UnreadCount struct {
	ExpertID uuid.UUID     `json:"expert_id"`
	Count    int           `json:"count"`
	Age      time.Duration `json:"-"`
	AgeMs    int64         `json:"age_ms"`
}

type MessageService struct {
	messages  MessageStore
	users     UserStore
	tracker   *unread.Tracker
	publisher events.Publisher
	logger    *zap.Logger
}

func NewMessageService(
	messages MessageStore,
	users UserStore,
	tracker *unread.Tracker,
	publisher events.Publisher,
	logger *zap.Logger,
) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		tracker:   tracker,
		publisher: publisher,
		logger:    logger,
	}
}

// Leave оставляет сообщение эксперту; счётчик растёт сразу, не дожидаясь сверки
func (s *MessageService) Leave(ctx context.Context, userID, expertID uuid.UUID, body string) (*model.AwayMessage, error) {
	const op = "message.leave"

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validation(op, "message body is empty")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return nil, apperr.Validation(op, "message is too long")
	}
	if userID == expertID {
		return nil, apperr.Validation(op, "cannot message yourself")
	}

	expert, err := s.users.GetByID(ctx, expertID)
	if err != nil {
		return nil, classify(op, err)
	}
	if expert == nil || !expert.IsExpert() {
		return nil, apperr.NotFound(op, "expert not found")
	}

	m := &model.AwayMessage{ExpertID: expertID, UserID: userID, Body: body}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, classify(op, err)
	}

	s.tracker.Increment(expertID)

	preview := body
	if utf8.RuneCountInString(preview) > 120 {
		preview = string([]rune(preview)[:120]) + "…"
	}
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.MessageReceived,
		OccurredAt: m.CreatedAt,
		ExpertID:   expertID,
		UserID:     userID,
		Text:       preview,
	}); err != nil {
		s.logger.Warn("Failed to publish message event", zap.Error(err))
	}

	s.logger.Info("Away message left",
		zap.String("message_id", m.ID.String()),
		zap.String("expert_id", expertID.String()),
	)
	return m, nil
}

// List сообщения эксперту
func (s *MessageService) List(ctx context.Context, expertID uuid.UUID, unreadOnly bool) ([]*model.AwayMessage, error) {
	list, err := s.messages.ListForExpert(ctx, expertID, unreadOnly)
	if err != nil {
		return nil, classify("message.list", err)
	}
	return list, nil
}

// MarkRead отмечает сообщения прочитанными и сразу уменьшает счётчик
func (s *MessageService) MarkRead(ctx context.Context, expertID uuid.UUID, ids []uuid.UUID) (int, error) {
	const op = "message.mark_read"

	if len(ids) == 0 {
		return 0, apperr.Validation(op, "no message ids given")
	}

	n, err := s.messages.MarkRead(ctx, expertID, ids)
	if err != nil {
		return 0, classify(op, err)
	}

	for i := 0; i < n; i++ {
		s.tracker.Decrement(expertID)
	}
	return n, nil
}

// Unread текущий счётчик эксперта
func (s *MessageService) Unread(expertID uuid.UUID) UnreadCount {
	n, age := s.tracker.Count(expertID)
	return UnreadCount{ExpertID: expertID, Count: n, Age: age, AgeMs: age.Milliseconds()}
}

// RefreshUnread принудительная сверка, работает и при открытом breaker'е
func (s *MessageService) RefreshUnread(ctx context.Context, expertID uuid.UUID) (UnreadCount, error) {
	if err := s.tracker.ForceReconcile(ctx); err != nil {
		return UnreadCount{}, apperr.Wrap(apperr.KindNetwork, "message.refresh_unread", err)
	}
	return s.Unread(expertID), nil
}
