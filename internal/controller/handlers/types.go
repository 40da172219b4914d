package handlers

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

type ExpertFinder interface {
	GetByTelegram(ctx context.Context, telegramID int64) (*model.User, error)
}

type PresenceSetter interface {
	Set(ctx context.Context, expertID uuid.UUID, status model.PresenceStatus) (*model.Presence, error)
	Get(ctx context.Context, expertID uuid.UUID) (model.Presence, error)
}

type UpcomingLister interface {
	Upcoming(ctx context.Context, expertID uuid.UUID, days int) ([]*model.Appointment, error)
}

// Handlers команды эксперта в боте
type Handlers struct {
	experts      ExpertFinder
	presence     PresenceSetter
	appointments UpcomingLister
	logger       *zap.Logger
}

func NewHandlers(
	experts ExpertFinder,
	presence PresenceSetter,
	appointments UpcomingLister,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		experts:      experts,
		presence:     presence,
		appointments: appointments,
		logger:       logger,
	}
}
