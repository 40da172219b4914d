package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
)

// PaymentResult что было оплачено: звонок или запись
type PaymentResult struct {
	Purpose     model.PaymentPurpose `json:"purpose"`
	Call        *model.CallSession   `json:"call,omitempty"`
	Appointment *model.Appointment   `json:"appointment,omitempty"`
}

// PaymentService принимает подтверждение оплаты от клиента и передаёт его
// сервису, который создал заказ
type PaymentService struct {
	payments     PaymentStore
	calls        *CallService
	appointments *AppointmentService
}

func NewPaymentService(payments PaymentStore, calls *CallService, appointments *AppointmentService) *PaymentService {
	return &PaymentService{
		payments:     payments,
		calls:        calls,
		appointments: appointments,
	}
}

func (s *PaymentService) Confirm(ctx context.Context, userID uuid.UUID, conf payment.Confirmation) (*PaymentResult, error) {
	const op = "payment.confirm"

	if conf.OrderID == "" {
		return nil, apperr.Validation(op, "order_id is required")
	}

	p, err := s.payments.GetByOrderID(ctx, conf.OrderID)
	if err != nil {
		return nil, classify(op, err)
	}
	if p == nil {
		return nil, apperr.NotFound(op, "order not found")
	}
	if p.UserID != userID {
		return nil, apperr.Forbidden(op, "order belongs to another user")
	}
	if p.Status != model.PaymentStatusCreated {
		return nil, apperr.Conflict(op, "order is already "+string(p.Status))
	}

	res := &PaymentResult{Purpose: p.Purpose}
	switch p.Purpose {
	case model.PaymentPurposeCall:
		res.Call, err = s.calls.confirmPayment(ctx, p, conf)
	case model.PaymentPurposeAppointment:
		res.Appointment, err = s.appointments.confirmPayment(ctx, p, conf)
	default:
		return nil, apperr.Validation(op, "unknown payment purpose")
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
