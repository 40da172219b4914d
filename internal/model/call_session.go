package model

import (
	"time"

	"github.com/google/uuid"
)

type CallKind string

const (
	CallKindVideo CallKind = "video"
	CallKindVoice CallKind = "voice"
)

func (k CallKind) Valid() bool {
	return k == CallKindVideo || k == CallKindVoice
}

type CallStatus string

const (
	CallStatusPending   CallStatus = "pending"   // создан после оплаты, ждём ответа эксперта
	CallStatusActive    CallStatus = "active"    // эксперт принял звонок
	CallStatusEnded     CallStatus = "ended"     // завершён одной из сторон или по таймеру
	CallStatusCancelled CallStatus = "cancelled" // так и не был принят
)

// Разрешённые переходы: только вперёд.
var callTransitions = map[CallStatus][]CallStatus{
	CallStatusPending: {CallStatusActive, CallStatusCancelled},
	CallStatusActive:  {CallStatusEnded},
}

func (s CallStatus) Valid() bool {
	switch s {
	case CallStatusPending, CallStatusActive, CallStatusEnded, CallStatusCancelled:
		return true
	}
	return false
}

func (s CallStatus) IsTerminal() bool {
	return s == CallStatusEnded || s == CallStatusCancelled
}

func (s CallStatus) CanTransitionTo(next CallStatus) bool {
	for _, allowed := range callTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CallSession один оплачиваемый звонок. ID служит и именем канала.
type CallSession struct {
	ID                    uuid.UUID  `json:"id"`
	UserID                uuid.UUID  `json:"user_id"`
	ExpertID              uuid.UUID  `json:"expert_id"`
	Kind                  CallKind   `json:"call_type"`
	Status                CallStatus `json:"status"`
	DurationMinutes       int        `json:"selected_duration"`
	Cost                  int64      `json:"cost"` // фиксируется при создании
	Currency              string     `json:"currency"`
	PaymentID             *string    `json:"payment_id,omitempty"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	EndTime               *time.Time `json:"end_time,omitempty"`
	ActualDurationSeconds *int       `json:"actual_duration,omitempty"`
	IsTest                bool       `json:"is_test"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// ChannelName имя канала для видео SDK
func (c *CallSession) ChannelName() string {
	return c.ID.String()
}

// IsParticipant проверяет что userID одна из сторон звонка
func (c *CallSession) IsParticipant(userID uuid.UUID) bool {
	return c.UserID == userID || c.ExpertID == userID
}

// ExpiresAt когда истекает оплаченное время (nil пока звонок не начат)
func (c *CallSession) ExpiresAt() *time.Time {
	if c.StartTime == nil {
		return nil
	}
	t := c.StartTime.Add(time.Duration(c.DurationMinutes) * time.Minute)
	return &t
}

// ComputeCost стоимость звонка: ставка за минуту × выбранные минуты
func ComputeCost(ratePerMinute int64, minutes int) int64 {
	return ratePerMinute * int64(minutes)
}
