package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/presence"
)

type PresenceService struct {
	store     PresenceStore
	cache     presence.Cache
	users     UserStore
	publisher events.Publisher
	logger    *zap.Logger
}

func NewPresenceService(
	store PresenceStore,
	cache presence.Cache,
	users UserStore,
	publisher events.Publisher,
	logger *zap.Logger,
) *PresenceService {
	return &PresenceService{
		store:     store,
		cache:     cache,
		users:     users,
		publisher: publisher,
		logger:    logger,
	}
}

// Set выставляет статус эксперта. Повтор того же статуса ничего не меняет
// и не рассылает уведомлений.
func (s *PresenceService) Set(ctx context.Context, expertID uuid.UUID, status model.PresenceStatus) (*model.Presence, error) {
	const op = "presence.set"

	if !status.Valid() {
		return nil, apperr.Validation(op, "status must be one of available, busy, away, offline")
	}

	user, err := s.users.GetByID(ctx, expertID)
	if err != nil {
		return nil, classify(op, err)
	}
	if user == nil || !user.IsExpert() {
		return nil, apperr.NotFound(op, "expert not found")
	}

	p := &model.Presence{ExpertID: expertID, Status: status}
	changed, err := s.store.Upsert(ctx, p)
	if err != nil {
		return nil, classify(op, err)
	}

	if !changed {
		// кэш мог потеряться (рестарт redis), восстанавливаем без рассылки в NATS
		cached, err := s.cache.Get(ctx, expertID)
		if err == nil && cached != nil && cached.Status == status {
			return p, nil
		}
	}

	// кэш и hub вторичны: при сбое клиенты догонят статус опросом
	if err := s.cache.Put(ctx, *p); err != nil {
		s.logger.Warn("Failed to cache presence",
			zap.String("expert_id", expertID.String()),
			zap.Error(err))
	}

	if changed {
		s.publish(ctx, events.Event{
			Type:       events.ExpertStatusChanged,
			OccurredAt: p.UpdatedAt,
			ExpertID:   expertID,
			Status:     string(status),
		})

		s.logger.Info("Expert status changed",
			zap.String("expert_id", expertID.String()),
			zap.String("status", string(status)),
		)
	}

	return p, nil
}

// Get последний известный статус: кэш, затем база, иначе offline
func (s *PresenceService) Get(ctx context.Context, expertID uuid.UUID) (model.Presence, error) {
	const op = "presence.get"

	cached, err := s.cache.Get(ctx, expertID)
	if err != nil {
		s.logger.Warn("Presence cache read failed", zap.String("expert_id", expertID.String()), zap.Error(err))
	} else if cached != nil {
		return *cached, nil
	}

	stored, err := s.store.Get(ctx, expertID)
	if err != nil {
		return model.Presence{}, classify(op, err)
	}
	if stored == nil {
		return model.OfflinePresence(expertID), nil
	}
	return *stored, nil
}

// IsOnline эксперт готов принять звонок прямо сейчас
func (s *PresenceService) IsOnline(ctx context.Context, expertID uuid.UUID) (bool, error) {
	p, err := s.Get(ctx, expertID)
	if err != nil {
		return false, err
	}
	return p.IsOnline(), nil
}

func (s *PresenceService) publish(ctx context.Context, ev events.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish presence event", zap.String("expert_id", ev.ExpertID.String()), zap.Error(err))
	}
}
