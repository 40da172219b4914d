package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/payment"
)

func tomorrow() time.Time {
	return model.DateOf(time.Now()).AddDate(0, 0, 1)
}

// datedSlot эксперт с одним слотом 10:00-11:00 на завтра
func datedSlot(t *testing.T, h *harness, rate int64) (*model.User, model.TimeSlot) {
	t.Helper()

	expert := h.expert(rate)
	day := tomorrow()
	window, _, err := h.Availability.Create(context.Background(), expert.ID, model.ExpertAvailability{
		Kind:      model.AvailabilityDateRange,
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 7),
		Slots: []model.TimeSlot{
			{StartTime: model.MustClock("10:00"), EndTime: model.MustClock("11:00"), SpecificDate: &day},
		},
	})
	require.NoError(t, err)
	return expert, window.Slots[0]
}

func TestAppointment_BookPayConfirm(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()

	checkout, err := h.Appointments.Book(ctx, client, BookRequest{
		ExpertID:   expert.ID,
		TimeSlotID: slot.ID,
		Date:       tomorrow(),
		Notes:      "  first session  ",
	})
	require.NoError(t, err)
	appt := checkout.Appointment
	require.Equal(t, model.AppointmentPending, appt.Status)
	require.Equal(t, int64(30*60), appt.Amount)
	require.Equal(t, int64(30*60), checkout.Order.Amount)
	require.Equal(t, "first session", *appt.Notes)

	open, err := h.Availability.OpenSlots(ctx, expert.ID, tomorrow())
	require.NoError(t, err)
	require.Empty(t, open, "held slot is not offered")

	res, err := h.Payments.Confirm(ctx, client.ID, paid(checkout.Order.OrderID))
	require.NoError(t, err)
	require.Equal(t, model.PaymentPurposeAppointment, res.Purpose)
	require.Equal(t, model.AppointmentConfirmed, res.Appointment.Status)
	require.NotNil(t, res.Appointment.CalendarEventID)

	stored, err := h.Appointments.Get(ctx, expert.ID, appt.ID)
	require.NoError(t, err)
	require.Equal(t, *res.Appointment.CalendarEventID, *stored.CalendarEventID)
	require.Contains(t, h.syncer.Events, *stored.CalendarEventID)
	require.Equal(t, "Arjun", h.syncer.Events[*stored.CalendarEventID].UserName)

	require.Equal(t, []events.Type{events.AppointmentBooked, events.AppointmentConfirmed}, h.recorder.Types())
}

func TestAppointment_SlotCannotBeDoubleBooked(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	first, second := h.client(), h.client()

	_, err := h.Appointments.Book(ctx, first, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.NoError(t, err)

	_, err = h.Appointments.Book(ctx, second, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAppointment_FailedPaymentReleasesSlot(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()

	checkout, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.NoError(t, err)

	_, err = h.Payments.Confirm(ctx, client.ID, payment.Confirmation{OrderID: checkout.Order.OrderID, Cancelled: true})
	require.True(t, apperr.Is(err, apperr.KindPayment))

	got, err := h.Appointments.Get(ctx, client.ID, checkout.Appointment.ID)
	require.NoError(t, err)
	require.Equal(t, model.AppointmentCancelled, got.Status)
	require.Equal(t, model.PaymentStatusFailed, h.payments.Status(checkout.Order.OrderID))

	open, err := h.Availability.OpenSlots(ctx, expert.ID, tomorrow())
	require.NoError(t, err)
	require.Len(t, open, 1)

	_, err = h.Appointments.Book(ctx, h.client(), BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.NoError(t, err)
}

func TestAppointment_OrderFailureReleasesHold(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()
	h.gateway.OrderErr = context.DeadlineExceeded

	_, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.True(t, apperr.Is(err, apperr.KindNetwork))

	list, err := h.Appointments.ListForUser(ctx, client.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.AppointmentCancelled, list[0].Status)
}

func TestAppointment_CancelRemovesCalendarEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()
	stranger := h.client()

	checkout, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.NoError(t, err)
	res, err := h.Payments.Confirm(ctx, client.ID, paid(checkout.Order.OrderID))
	require.NoError(t, err)
	eventID := *res.Appointment.CalendarEventID

	_, err = h.Appointments.Cancel(ctx, stranger.ID, checkout.Appointment.ID)
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	cancelled, err := h.Appointments.Cancel(ctx, expert.ID, checkout.Appointment.ID)
	require.NoError(t, err)
	require.Equal(t, model.AppointmentCancelled, cancelled.Status)
	require.Nil(t, cancelled.CalendarEventID)
	require.Equal(t, []string{eventID}, h.syncer.Removed)

	last, _ := h.recorder.Last()
	require.Equal(t, events.AppointmentCancelled, last.Type)
	require.Equal(t, "cancelled by expert", last.Text)

	_, err = h.Appointments.Cancel(ctx, client.ID, checkout.Appointment.ID)
	require.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestAppointment_BookValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()

	_, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: time.Now().AddDate(0, 0, -1)})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: uuid.New(), Date: tomorrow()})
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	other := h.expert(10)
	_, err = h.Appointments.Book(ctx, client, BookRequest{ExpertID: other.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.True(t, apperr.Is(err, apperr.KindNotFound), "slot belongs to another expert")

	_, err = h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow().AddDate(0, 0, 1)})
	require.True(t, apperr.Is(err, apperr.KindConflict), "slot is for a different date")

	_, err = h.Appointments.Book(ctx, expert, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestAppointment_RecurringSlotIsPerDate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert := h.expert(20)
	day := tomorrow()
	window, _, err := h.Availability.Create(ctx, expert.ID, model.ExpertAvailability{
		Kind:      model.AvailabilityRecurring,
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 30),
		Slots: []model.TimeSlot{
			{StartTime: model.MustClock("18:00"), EndTime: model.MustClock("19:00"), DayOfWeek: model.Weekday(day.Weekday())},
		},
	})
	require.NoError(t, err)
	slot := window.Slots[0]

	_, err = h.Appointments.Book(ctx, h.client(), BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: day})
	require.NoError(t, err)

	_, free, err := h.Availability.CheckBookable(ctx, expert.ID, day, slot.StartTime, slot.EndTime)
	require.NoError(t, err)
	require.False(t, free)

	nextWeek := day.AddDate(0, 0, 7)
	found, free, err := h.Availability.CheckBookable(ctx, expert.ID, nextWeek, slot.StartTime, slot.EndTime)
	require.NoError(t, err)
	require.True(t, free)
	require.Equal(t, slot.ID, found.ID)

	_, err = h.Appointments.Book(ctx, h.client(), BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: nextWeek})
	require.NoError(t, err)
}

func TestAppointment_Sweeps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	day := tomorrow()
	second, _, err := h.Availability.Create(ctx, expert.ID, model.ExpertAvailability{
		Kind:      model.AvailabilityDateRange,
		StartDate: day,
		EndDate:   day.AddDate(0, 0, 1),
		Slots: []model.TimeSlot{
			{StartTime: model.MustClock("14:00"), EndTime: model.MustClock("15:00"), SpecificDate: &day},
		},
	})
	require.NoError(t, err)

	client := h.client()
	unpaid, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: day})
	require.NoError(t, err)
	confirmed, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: second.Slots[0].ID, Date: day})
	require.NoError(t, err)
	_, err = h.Payments.Confirm(ctx, client.ID, paid(confirmed.Order.OrderID))
	require.NoError(t, err)

	h.appointments.Backdate(unpaid.Appointment.ID, DefaultPaymentHold+time.Minute)

	n, err := h.Appointments.ReleaseUnpaid(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = h.Appointments.CompleteDue(ctx)
	require.NoError(t, err)
	require.Zero(t, n, "nothing has happened yet")

	h.Appointments.now = func() time.Time { return day.Add(36 * time.Hour) }
	n, err = h.Appointments.CompleteDue(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	list, err := h.Appointments.ListForUser(ctx, client.ID)
	require.NoError(t, err)
	statuses := map[uuid.UUID]model.AppointmentStatus{}
	for _, a := range list {
		statuses[a.ID] = a.Status
	}
	require.Equal(t, model.AppointmentCancelled, statuses[unpaid.Appointment.ID])
	require.Equal(t, model.AppointmentCompleted, statuses[confirmed.Appointment.ID])
}

func TestAppointment_ListForExpertAndUpcoming(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert, slot := datedSlot(t, h, 30)
	client := h.client()

	_, err := h.Appointments.Book(ctx, client, BookRequest{ExpertID: expert.ID, TimeSlotID: slot.ID, Date: tomorrow()})
	require.NoError(t, err)

	_, err = h.Appointments.ListForExpert(ctx, expert.ID, tomorrow(), tomorrow().AddDate(0, 0, -1))
	require.True(t, apperr.Is(err, apperr.KindValidation))

	list, err := h.Appointments.ListForExpert(ctx, expert.ID, tomorrow(), tomorrow())
	require.NoError(t, err)
	require.Len(t, list, 1)

	upcoming, err := h.Appointments.Upcoming(ctx, expert.ID, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
}
