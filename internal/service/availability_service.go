package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/availability"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

type AvailabilityService struct {
	users        UserStore
	windows      AvailabilityStore
	appointments AppointmentStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewAvailabilityService(
	users UserStore,
	windows AvailabilityStore,
	appointments AppointmentStore,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		users:        users,
		windows:      windows,
		appointments: appointments,
		logger:       logger,
		now:          time.Now,
	}
}

// Create проверяет окно и сохраняет его. Отчёт валидатора возвращается всегда,
// в том числе с предупреждениями при успешном сохранении.
func (s *AvailabilityService) Create(ctx context.Context, expertID uuid.UUID, window model.ExpertAvailability) (*model.ExpertAvailability, availability.Report, error) {
	const op = "availability.create"

	if _, err := s.requireExpert(ctx, op, expertID); err != nil {
		return nil, availability.Report{}, err
	}

	window.ExpertID = expertID
	window.StartDate = model.DateOf(window.StartDate)
	window.EndDate = model.DateOf(window.EndDate)

	report := availability.ValidateAvailability(window, model.DateOf(s.now()))

	// пересечения с уже сохранёнными окнами эксперта; только для корректного окна
	if report.OK() {
		existing, err := s.windows.ListByExpert(ctx, expertID, window.StartDate)
		if err != nil {
			return nil, report, classify(op, err)
		}
		var saved []model.TimeSlot
		for _, w := range existing {
			if w.Kind != window.Kind || w.StartDate.After(window.EndDate) {
				continue
			}
			saved = append(saved, w.Slots...)
		}
		for i, slot := range window.Slots {
			cross := availability.ValidateSlot(slot, saved)
			for _, issue := range cross.Errors {
				issue.SlotIndex = i
				report.Errors = append(report.Errors, issue)
			}
		}
	}

	if !report.OK() {
		return nil, report, apperr.Validation(op, report.Errors[0].Message)
	}

	if err := s.windows.Create(ctx, &window); err != nil {
		return nil, report, classify(op, err)
	}

	s.logger.Info("Availability created",
		zap.String("availability_id", window.ID.String()),
		zap.String("expert_id", expertID.String()),
		zap.String("kind", string(window.Kind)),
		zap.Int("slots", len(window.Slots)),
		zap.Int("warnings", len(report.Warnings)),
	)

	return &window, report, nil
}

// List окна эксперта, актуальные на сегодня
func (s *AvailabilityService) List(ctx context.Context, expertID uuid.UUID) ([]*model.ExpertAvailability, error) {
	windows, err := s.windows.ListByExpert(ctx, expertID, s.now())
	if err != nil {
		return nil, classify("availability.list", err)
	}
	return windows, nil
}

// OpenSlots свободные слоты эксперта на дату
func (s *AvailabilityService) OpenSlots(ctx context.Context, expertID uuid.UUID, date time.Time) ([]model.TimeSlot, error) {
	const op = "availability.open_slots"

	date = model.DateOf(date)
	if date.Before(model.DateOf(s.now())) {
		return []model.TimeSlot{}, nil
	}

	windows, err := s.windows.ListByExpert(ctx, expertID, date)
	if err != nil {
		return nil, classify(op, err)
	}

	flat := make([]model.ExpertAvailability, 0, len(windows))
	for _, w := range windows {
		flat = append(flat, *w)
	}
	open := availability.OpenSlots(flat, date)

	taken, err := s.appointments.ListByExpert(ctx, expertID, date, date)
	if err != nil {
		return nil, classify(op, err)
	}
	takenVals := make([]model.Appointment, 0, len(taken))
	for _, a := range taken {
		takenVals = append(takenVals, *a)
	}

	free := availability.WithoutTaken(open, takenVals)
	if free == nil {
		free = []model.TimeSlot{}
	}
	return free, nil
}

// CheckBookable можно ли записаться к эксперту на интервал. Ответ подсказка для UI:
// окончательно занятость решает транзакция при создании записи.
func (s *AvailabilityService) CheckBookable(ctx context.Context, expertID uuid.UUID, date time.Time, start, end model.ClockTime) (*model.TimeSlot, bool, error) {
	const op = "availability.check"

	if start >= end {
		return nil, false, apperr.Validation(op, "start time must be before end time")
	}

	windows, err := s.windows.ListByExpert(ctx, expertID, date)
	if err != nil {
		return nil, false, classify(op, err)
	}

	for _, w := range windows {
		slot, ok := availability.IsBookable(*w, date, start, end)
		if !ok {
			continue
		}
		free, err := s.appointments.IsTimeSlotAvailable(ctx, slot.ID, date)
		if err != nil {
			return nil, false, classify(op, err)
		}
		if free {
			return slot, true, nil
		}
	}

	return nil, false, nil
}

// Delete удаляет окно эксперта
func (s *AvailabilityService) Delete(ctx context.Context, expertID, availabilityID uuid.UUID) error {
	if err := s.windows.Delete(ctx, availabilityID, expertID); err != nil {
		return classify("availability.delete", err)
	}

	s.logger.Info("Availability deleted",
		zap.String("availability_id", availabilityID.String()),
		zap.String("expert_id", expertID.String()),
	)
	return nil
}

func (s *AvailabilityService) requireExpert(ctx context.Context, op string, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, classify(op, err)
	}
	if user == nil {
		return nil, apperr.NotFound(op, "expert not found")
	}
	if !user.IsExpert() {
		return nil, apperr.Forbidden(op, "only experts can manage availability")
	}
	return user, nil
}
