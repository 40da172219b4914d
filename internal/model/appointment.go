package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"   // слот удержан, ждём оплату
	AppointmentConfirmed AppointmentStatus = "confirmed" // оплачено
	AppointmentCancelled AppointmentStatus = "cancelled" // отменено, слот освобождён
	AppointmentCompleted AppointmentStatus = "completed" // прошло
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentPending:   {AppointmentConfirmed, AppointmentCancelled},
	AppointmentConfirmed: {AppointmentCompleted, AppointmentCancelled},
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// IsActive записи, которые держат слот
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentPending || s == AppointmentConfirmed
}

func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID              uuid.UUID         `json:"id"`
	ExpertID        uuid.UUID         `json:"expert_id"`
	UserID          uuid.UUID         `json:"user_id"`
	TimeSlotID      uuid.UUID         `json:"time_slot_id"`
	AppointmentDate time.Time         `json:"appointment_date"`
	StartTime       ClockTime         `json:"start_time"`
	EndTime         ClockTime         `json:"end_time"`
	Status          AppointmentStatus `json:"status"`
	Amount          int64             `json:"amount"` // в минорных единицах (пайсы/центы)
	Currency        string            `json:"currency"`
	CalendarEventID *string           `json:"calendar_event_id,omitempty"`
	Notes           *string           `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// StartsAt момент начала в UTC
func (a *Appointment) StartsAt() time.Time {
	return a.StartTime.On(DateOf(a.AppointmentDate))
}

func (a *Appointment) EndsAt() time.Time {
	return a.EndTime.On(DateOf(a.AppointmentDate))
}
