// Package callflow дерево решений при обрыве звонка: переподключиться или завершить.
package callflow

import (
	"context"
	"errors"
	"fmt"
)

type State string

const (
	StateConnected     State = "connected"
	StateInterrupted   State = "interrupted"
	StateConfirmingEnd State = "confirming_end"
	StateEnded         State = "ended"
)

type Action string

const (
	ActionDrop    Action = "drop"    // медиа-соединение оборвалось
	ActionRejoin  Action = "rejoin"  // "Переподключиться"
	ActionDone    Action = "done"    // "Я закончил"
	ActionConfirm Action = "confirm" // подтверждение завершения
	ActionDismiss Action = "dismiss" // передумал завершать
)

type Role string

const (
	RoleUser   Role = "user"
	RoleExpert Role = "expert"
)

var ErrInvalidAction = errors.New("action not allowed in current state")

// Effects побочные эффекты переходов. Реализуется сервисом звонков.
type Effects interface {
	Rejoin(ctx context.Context) error
	EndSession(ctx context.Context) error
}

// Flow состояние одного участника одного звонка
type Flow struct {
	role  Role
	state State
}

func New(role Role) *Flow {
	return &Flow{role: role, state: StateConnected}
}

func (f *Flow) State() State { return f.state }
func (f *Flow) Role() Role   { return f.role }

// Next чистый переход без эффектов: следующее состояние для действия
func (f *Flow) Next(action Action) (State, error) {
	switch f.state {
	case StateConnected:
		if action == ActionDrop {
			return StateInterrupted, nil
		}
	case StateInterrupted:
		switch action {
		case ActionRejoin:
			return StateConnected, nil
		case ActionDone:
			// Эксперт завершает без двойного подтверждения
			if f.role == RoleExpert {
				return StateEnded, nil
			}
			return StateConfirmingEnd, nil
		case ActionDrop:
			return StateInterrupted, nil
		}
	case StateConfirmingEnd:
		switch action {
		case ActionConfirm:
			return StateEnded, nil
		case ActionDismiss:
			return StateInterrupted, nil
		case ActionRejoin:
			// Отказ от завершения и сразу переподключение: сессия не завершается
			return StateConnected, nil
		}
	}
	return f.state, fmt.Errorf("%w: %s in %s", ErrInvalidAction, action, f.state)
}

// Apply выполняет переход и нужный эффект. Если эффект упал, состояние не меняется.
func (f *Flow) Apply(ctx context.Context, action Action, effects Effects) (State, error) {
	next, err := f.Next(action)
	if err != nil {
		return f.state, err
	}

	switch {
	case next == StateConnected && f.state != StateConnected:
		if err := effects.Rejoin(ctx); err != nil {
			return f.state, fmt.Errorf("rejoin: %w", err)
		}
	case next == StateEnded:
		if err := effects.EndSession(ctx); err != nil {
			return f.state, fmt.Errorf("end session: %w", err)
		}
	}

	f.state = next
	return f.state, nil
}
