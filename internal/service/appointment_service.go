package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/availability"
	"github.com/Freeeeeet/wellness_api/internal/calendar"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
	"github.com/Freeeeeet/wellness_api/internal/repository"
)

// DefaultPaymentHold сколько запись ждёт оплату, удерживая слот
const DefaultPaymentHold = 30 * time.Minute

type BookRequest struct {
	ExpertID   uuid.UUID
	TimeSlotID uuid.UUID
	Date       time.Time
	Notes      string
}

type AppointmentCheckout struct {
	Appointment *model.Appointment `json:"appointment"`
	Order       *payment.Order     `json:"order"`
}

type AppointmentService struct {
	users        UserStore
	windows      AvailabilityStore
	appointments AppointmentStore
	payments     PaymentStore
	processor    *payment.Processor
	calendar     calendar.Syncer
	publisher    events.Publisher
	hold         time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewAppointmentService(
	users UserStore,
	windows AvailabilityStore,
	appointments AppointmentStore,
	payments PaymentStore,
	processor *payment.Processor,
	syncer calendar.Syncer,
	publisher events.Publisher,
	logger *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		users:        users,
		windows:      windows,
		appointments: appointments,
		payments:     payments,
		processor:    processor,
		calendar:     syncer,
		publisher:    publisher,
		hold:         DefaultPaymentHold,
		logger:       logger,
		now:          time.Now,
	}
}

// Book удерживает слот (запись pending) и создаёт заказ на оплату.
// Подтверждение записи происходит только после успешной оплаты.
func (s *AppointmentService) Book(ctx context.Context, user *model.User, req BookRequest) (*AppointmentCheckout, error) {
	const op = "appointment.book"

	date := model.DateOf(req.Date)
	if date.Before(model.DateOf(s.now())) {
		return nil, apperr.Validation(op, "appointment date is in the past")
	}
	if user.ID == req.ExpertID {
		return nil, apperr.Validation(op, "cannot book yourself")
	}

	expert, err := s.users.GetByID(ctx, req.ExpertID)
	if err != nil {
		return nil, classify(op, err)
	}
	if expert == nil || !expert.IsExpert() || !expert.IsActive {
		return nil, apperr.NotFound(op, "expert not found")
	}

	slot, window, err := s.windows.GetSlot(ctx, req.TimeSlotID)
	if err != nil {
		return nil, classify(op, err)
	}
	if slot == nil || window.ExpertID != expert.ID {
		return nil, apperr.NotFound(op, "time slot not found")
	}

	// быстрый отказ до транзакции; окончательно решает CreateIfAvailable
	window.Slots = []model.TimeSlot{*slot}
	if _, ok := availability.IsBookable(*window, date, slot.StartTime, slot.EndTime); !ok {
		return nil, apperr.Conflict(op, "time slot is not available on this date")
	}
	if slot.StartTime.On(date).Before(s.now()) {
		return nil, apperr.Validation(op, "time slot has already started")
	}

	amount := model.ComputeCost(expert.RatePerMinute, slot.Duration())
	if amount <= 0 {
		return nil, apperr.Validation(op, "expert has no rate configured")
	}

	currency := expert.Currency
	if currency == "" {
		currency = "INR"
	}

	appt := &model.Appointment{
		ExpertID:        expert.ID,
		UserID:          user.ID,
		TimeSlotID:      slot.ID,
		AppointmentDate: date,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		Amount:          amount,
		Currency:        currency,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		appt.Notes = &notes
	}

	if err := s.appointments.CreateIfAvailable(ctx, appt); err != nil {
		return nil, classify(op, err)
	}

	order, err := s.processor.Checkout(ctx, payment.OrderRequest{
		Amount:        appt.Amount,
		Currency:      appt.Currency,
		Description:   "Appointment " + appt.StartsAt().Format("2006-01-02 15:04"),
		ReferenceID:   appt.ID,
		CustomerEmail: user.Email,
		CustomerName:  user.FullName,
	})
	if err != nil {
		s.release(ctx, appt, "order creation failed")
		if errors.Is(err, payment.ErrInvalidRequest) {
			return nil, apperr.Wrap(apperr.KindValidation, op, err)
		}
		return nil, apperr.Network(op, err)
	}

	p := &model.Payment{
		UserID:      user.ID,
		ExpertID:    expert.ID,
		Purpose:     model.PaymentPurposeAppointment,
		ReferenceID: appt.ID,
		Provider:    order.Provider,
		OrderID:     order.OrderID,
		Amount:      appt.Amount,
		Currency:    appt.Currency,
		Status:      model.PaymentStatusCreated,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		s.release(ctx, appt, "payment record failed")
		return nil, classify(op, err)
	}

	s.publish(ctx, events.AppointmentBooked, appt, "")

	s.logger.Info("Appointment held for payment",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("expert_id", expert.ID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("order_id", order.OrderID),
		zap.Int64("amount", appt.Amount),
	)

	return &AppointmentCheckout{Appointment: appt, Order: order}, nil
}

// confirmPayment pending -> confirmed в OnSuccess, pending -> cancelled в OnFailure
func (s *AppointmentService) confirmPayment(ctx context.Context, p *model.Payment, conf payment.Confirmation) (*model.Appointment, error) {
	const op = "appointment.confirm_payment"

	var (
		confirmed *model.Appointment
		captured  bool
	)
	err := s.processor.Complete(ctx, conf, payment.Callbacks{
		OnSuccess: func(ctx context.Context, receipt payment.Receipt) error {
			captured = true
			a, err := s.appointments.ConfirmPaid(ctx, p.ReferenceID, p.OrderID, receipt.PaymentID)
			if err != nil {
				return err
			}
			confirmed = a
			return nil
		},
		OnFailure: func(ctx context.Context, cause error) {
			if err := s.payments.MarkFailed(ctx, p.OrderID, cause.Error()); err != nil && !errors.Is(err, repository.ErrStaleTransition) {
				s.logger.Error("Failed to mark appointment payment failed", zap.String("order_id", p.OrderID), zap.Error(err))
			}
			if appt, err := s.appointments.GetByID(ctx, p.ReferenceID); err == nil && appt != nil {
				s.release(ctx, appt, "payment failed")
			}
		},
	})
	if err != nil {
		if !captured {
			return nil, apperr.Payment(op, err)
		}
		return nil, classify(op, err)
	}

	s.syncCalendar(ctx, confirmed)
	s.publish(ctx, events.AppointmentConfirmed, confirmed, "")

	s.logger.Info("Appointment confirmed",
		zap.String("appointment_id", confirmed.ID.String()),
		zap.String("order_id", p.OrderID),
	)
	return confirmed, nil
}

// Cancel отмена записи пользователем или экспертом
func (s *AppointmentService) Cancel(ctx context.Context, actorID, id uuid.UUID) (*model.Appointment, error) {
	const op = "appointment.cancel"

	appt, err := s.participantAppointment(ctx, op, actorID, id)
	if err != nil {
		return nil, err
	}
	if !appt.Status.CanTransitionTo(model.AppointmentCancelled) {
		return nil, apperr.Conflict(op, "appointment cannot be cancelled in status "+string(appt.Status))
	}

	cancelled, err := s.appointments.UpdateStatus(ctx, id, appt.Status, model.AppointmentCancelled)
	if err != nil {
		return nil, classify(op, err)
	}

	s.removeCalendarEvent(ctx, cancelled)
	reason := "cancelled by user"
	if actorID == appt.ExpertID {
		reason = "cancelled by expert"
	}
	s.publish(ctx, events.AppointmentCancelled, cancelled, reason)

	s.logger.Info("Appointment cancelled",
		zap.String("appointment_id", id.String()),
		zap.String("actor_id", actorID.String()),
	)
	return cancelled, nil
}

// Get запись, видимая только её сторонам
func (s *AppointmentService) Get(ctx context.Context, actorID, id uuid.UUID) (*model.Appointment, error) {
	return s.participantAppointment(ctx, "appointment.get", actorID, id)
}

// ListForUser записи пользователя
func (s *AppointmentService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	list, err := s.appointments.ListByUser(ctx, userID)
	if err != nil {
		return nil, classify("appointment.list_user", err)
	}
	return list, nil
}

// ListForExpert записи эксперта в диапазоне дат
func (s *AppointmentService) ListForExpert(ctx context.Context, expertID uuid.UUID, from, to time.Time) ([]*model.Appointment, error) {
	const op = "appointment.list_expert"

	if to.Before(from) {
		return nil, apperr.Validation(op, "to must not be before from")
	}
	list, err := s.appointments.ListByExpert(ctx, expertID, from, to)
	if err != nil {
		return nil, classify(op, err)
	}
	return list, nil
}

// Upcoming ближайшие живые записи эксперта, для бота
func (s *AppointmentService) Upcoming(ctx context.Context, expertID uuid.UUID, days int) ([]*model.Appointment, error) {
	today := model.DateOf(s.now())
	list, err := s.ListForExpert(ctx, expertID, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}

	var live []*model.Appointment
	for _, a := range list {
		if a.Status.IsActive() && a.EndsAt().After(s.now()) {
			live = append(live, a)
		}
	}
	return live, nil
}

// SyncCalendar ручная синхронизация записи с календарём эксперта
func (s *AppointmentService) SyncCalendar(ctx context.Context, actorID, id uuid.UUID) (*model.Appointment, error) {
	const op = "appointment.calendar_sync"

	appt, err := s.participantAppointment(ctx, op, actorID, id)
	if err != nil {
		return nil, err
	}

	switch appt.Status {
	case model.AppointmentConfirmed:
		if err := s.upsertCalendarEvent(ctx, appt); err != nil {
			return nil, apperr.Network(op, err)
		}
	case model.AppointmentCancelled:
		s.removeCalendarEvent(ctx, appt)
	default:
		return nil, apperr.Conflict(op, "only confirmed or cancelled appointments are synced")
	}
	return appt, nil
}

// CompleteDue confirmed -> completed для прошедших записей
func (s *AppointmentService) CompleteDue(ctx context.Context) (int, error) {
	due, err := s.appointments.ListDueForCompletion(ctx, s.now())
	if err != nil {
		return 0, classify("appointment.complete_due", err)
	}

	completed := 0
	for _, a := range due {
		if _, err := s.appointments.UpdateStatus(ctx, a.ID, model.AppointmentConfirmed, model.AppointmentCompleted); err != nil {
			if !errors.Is(err, repository.ErrStaleTransition) {
				s.logger.Error("Failed to complete appointment", zap.String("appointment_id", a.ID.String()), zap.Error(err))
			}
			continue
		}
		completed++
	}
	return completed, nil
}

// ReleaseUnpaid отменяет записи, не оплаченные за время удержания
func (s *AppointmentService) ReleaseUnpaid(ctx context.Context) (int, error) {
	stale, err := s.appointments.ListStalePending(ctx, s.now().Add(-s.hold))
	if err != nil {
		return 0, classify("appointment.release_unpaid", err)
	}

	released := 0
	for _, a := range stale {
		if s.release(ctx, a, "payment not received in time") {
			released++
		}
	}
	return released, nil
}

// release pending -> cancelled с освобождением слота
func (s *AppointmentService) release(ctx context.Context, appt *model.Appointment, reason string) bool {
	cancelled, err := s.appointments.UpdateStatus(ctx, appt.ID, model.AppointmentPending, model.AppointmentCancelled)
	if err != nil {
		if !errors.Is(err, repository.ErrStaleTransition) {
			s.logger.Error("Failed to release appointment",
				zap.String("appointment_id", appt.ID.String()),
				zap.String("reason", reason),
				zap.Error(err))
		}
		return false
	}

	s.publish(ctx, events.AppointmentCancelled, cancelled, reason)
	s.logger.Info("Appointment released",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("reason", reason),
	)
	return true
}

// syncCalendar ошибки календаря не ломают подтверждение: запись уже оплачена
func (s *AppointmentService) syncCalendar(ctx context.Context, appt *model.Appointment) {
	if err := s.upsertCalendarEvent(ctx, appt); err != nil {
		s.logger.Warn("Calendar sync failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err))
	}
}

func (s *AppointmentService) upsertCalendarEvent(ctx context.Context, appt *model.Appointment) error {
	names, err := s.users.GetByIDs(ctx, []uuid.UUID{appt.ExpertID, appt.UserID})
	if err != nil {
		return err
	}

	entry := calendar.Entry{Appointment: *appt}
	if e, ok := names[appt.ExpertID]; ok {
		entry.ExpertName = e.FullName
	}
	if u, ok := names[appt.UserID]; ok {
		entry.UserName = u.FullName
	}

	eventID, err := s.calendar.Upsert(ctx, entry)
	if err != nil {
		return err
	}
	if eventID == "" {
		return nil
	}

	if err := s.appointments.SetCalendarEvent(ctx, appt.ID, &eventID); err != nil {
		return err
	}
	appt.CalendarEventID = &eventID
	return nil
}

func (s *AppointmentService) removeCalendarEvent(ctx context.Context, appt *model.Appointment) {
	if appt.CalendarEventID == nil {
		return
	}
	if err := s.calendar.Remove(ctx, *appt.CalendarEventID); err != nil {
		s.logger.Warn("Failed to remove calendar event",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err))
		return
	}
	if err := s.appointments.SetCalendarEvent(ctx, appt.ID, nil); err != nil {
		s.logger.Warn("Failed to clear calendar event id", zap.String("appointment_id", appt.ID.String()), zap.Error(err))
		return
	}
	appt.CalendarEventID = nil
}

func (s *AppointmentService) participantAppointment(ctx context.Context, op string, actorID, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, classify(op, err)
	}
	if appt == nil {
		return nil, apperr.NotFound(op, "appointment not found")
	}
	if appt.UserID != actorID && appt.ExpertID != actorID {
		return nil, apperr.Forbidden(op, "not a participant of this appointment")
	}
	return appt, nil
}

func (s *AppointmentService) publish(ctx context.Context, typ events.Type, a *model.Appointment, text string) {
	starts := a.StartsAt()
	ev := events.Event{
		Type:          typ,
		OccurredAt:    s.now().UTC(),
		ExpertID:      a.ExpertID,
		UserID:        a.UserID,
		AppointmentID: &a.ID,
		Status:        string(a.Status),
		Amount:        a.Amount,
		Currency:      a.Currency,
		StartsAt:      &starts,
		Text:          text,
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish appointment event",
			zap.String("type", string(typ)),
			zap.Error(err))
	}
}
