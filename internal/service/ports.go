package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

// Хранилища, от которых зависят сервисы. Реализуются пакетом repository,
// в тестах in-memory фейками.

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	ListExperts(ctx context.Context, activeOnly bool) ([]*model.User, error)
	UpdateExpert(ctx context.Context, id uuid.UUID, upd model.ExpertUpdate) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error)
}

type AvailabilityStore interface {
	Create(ctx context.Context, a *model.ExpertAvailability) error
	ListByExpert(ctx context.Context, expertID uuid.UUID, from time.Time) ([]*model.ExpertAvailability, error)
	GetSlot(ctx context.Context, slotID uuid.UUID) (*model.TimeSlot, *model.ExpertAvailability, error)
	Delete(ctx context.Context, id, expertID uuid.UUID) error
}

type AppointmentStore interface {
	CreateIfAvailable(ctx context.Context, appt *model.Appointment) error
	IsTimeSlotAvailable(ctx context.Context, slotID uuid.UUID, date time.Time) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	ListByExpert(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Appointment, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.AppointmentStatus) (*model.Appointment, error)
	ConfirmPaid(ctx context.Context, id uuid.UUID, orderID, paymentID string) (*model.Appointment, error)
	SetCalendarEvent(ctx context.Context, id uuid.UUID, eventID *string) error
	ListDueForCompletion(ctx context.Context, now time.Time) ([]*model.Appointment, error)
	ListStalePending(ctx context.Context, before time.Time) ([]*model.Appointment, error)
}

type CallStore interface {
	Create(ctx context.Context, c *model.CallSession) error
	CreatePaid(ctx context.Context, c *model.CallSession, orderID string) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.CallSession, error)
	Activate(ctx context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error)
	End(ctx context.Context, id uuid.UUID, at time.Time) (*model.CallSession, error)
	Cancel(ctx context.Context, id uuid.UUID) (*model.CallSession, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*model.CallSession, error)
	ListByExpert(ctx context.Context, expertID uuid.UUID, statuses []model.CallStatus) ([]*model.CallSession, error)
	ListStalePending(ctx context.Context, before time.Time) ([]*model.CallSession, error)
	ListExpired(ctx context.Context, now time.Time) ([]*model.CallSession, error)
}

type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error)
	MarkFailed(ctx context.Context, orderID, reason string) error
}

type PresenceStore interface {
	Upsert(ctx context.Context, p *model.Presence) (bool, error)
	Get(ctx context.Context, expertID uuid.UUID) (*model.Presence, error)
	ListAll(ctx context.Context) (map[uuid.UUID]model.Presence, error)
}

type MessageStore interface {
	Create(ctx context.Context, m *model.AwayMessage) error
	ListForExpert(ctx context.Context, expertID uuid.UUID, unreadOnly bool) ([]*model.AwayMessage, error)
	MarkRead(ctx context.Context, expertID uuid.UUID, ids []uuid.UUID) (int, error)
	UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error)
}
