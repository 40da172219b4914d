package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentPurpose string

const (
	PaymentPurposeCall        PaymentPurpose = "call"
	PaymentPurposeAppointment PaymentPurpose = "appointment"
)

type PaymentStatus string

const (
	PaymentStatusCreated PaymentStatus = "created" // заказ создан, ждём подтверждения
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment запись о заказе у платёжного провайдера.
// Для звонков хранит намерение (эксперт, тип, минуты): сессия создаётся только после оплаты.
type Payment struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	ExpertID        uuid.UUID      `json:"expert_id"`
	Purpose         PaymentPurpose `json:"purpose"`
	ReferenceID     uuid.UUID      `json:"reference_id"` // id будущей сессии или записи
	Provider        string         `json:"provider"`
	OrderID         string         `json:"order_id"`
	PaymentID       *string        `json:"payment_id,omitempty"`
	Amount          int64          `json:"amount"`
	Currency        string         `json:"currency"`
	Status          PaymentStatus  `json:"status"`
	CallKind        *CallKind      `json:"call_type,omitempty"`
	DurationMinutes *int           `json:"duration_minutes,omitempty"`
	FailureReason   *string        `json:"failure_reason,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}
