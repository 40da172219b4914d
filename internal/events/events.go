// Package events публикует доменные события в NATS.
// Нотификатор (cmd/notifier) подписывается на них и шлёт сообщения экспертам.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	CallRequested        Type = "call.requested"
	CallAccepted         Type = "call.accepted"
	CallEnded            Type = "call.ended"
	CallCancelled        Type = "call.cancelled"
	AppointmentBooked    Type = "appointment.booked"
	AppointmentConfirmed Type = "appointment.confirmed"
	AppointmentCancelled Type = "appointment.cancelled"
	ExpertStatusChanged  Type = "expert.status_changed"
	MessageReceived      Type = "message.received"
)

// Event единый конверт для всех событий; неиспользуемые поля пустые
type Event struct {
	Type          Type       `json:"event_type"`
	OccurredAt    time.Time  `json:"occurred_at"`
	ExpertID      uuid.UUID  `json:"expert_id"`
	UserID        uuid.UUID  `json:"user_id,omitempty"`
	SessionID     *uuid.UUID `json:"session_id,omitempty"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Status        string     `json:"status,omitempty"`
	CallKind      string     `json:"call_type,omitempty"`
	Minutes       int        `json:"minutes,omitempty"`
	Amount        int64      `json:"amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	Text          string     `json:"text,omitempty"`
	IsTest        bool       `json:"is_test,omitempty"`
}

var ErrMalformed = errors.New("malformed event")

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func Encode(ev Event) ([]byte, error) {
	if ev.Type == "" {
		return nil, fmt.Errorf("%w: empty type", ErrMalformed)
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	return json.Marshal(ev)
}

func Decode(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.Type == "" || ev.ExpertID == uuid.Nil {
		return Event{}, fmt.Errorf("%w: missing type or expert", ErrMalformed)
	}
	return ev, nil
}

// NopPublisher используется, когда NATS_URL не задан
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
