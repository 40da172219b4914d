package availability

import (
	"testing"
	"time"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/stretchr/testify/require"
)

var today = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func weekly(day time.Weekday, start, end string) model.TimeSlot {
	return model.TimeSlot{
		StartTime: model.MustClock(start),
		EndTime:   model.MustClock(end),
		DayOfWeek: model.Weekday(day),
	}
}

func dated(date time.Time, start, end string) model.TimeSlot {
	return model.TimeSlot{
		StartTime:    model.MustClock(start),
		EndTime:      model.MustClock(end),
		SpecificDate: &date,
	}
}

func TestValidateSlot_Overlap(t *testing.T) {
	existing := []model.TimeSlot{weekly(time.Monday, "09:00", "10:00")}

	r := ValidateSlot(weekly(time.Monday, "09:30", "10:30"), existing)
	require.False(t, r.OK())
	require.Equal(t, 1, r.Count(CodeOverlap))

	r = ValidateSlot(weekly(time.Monday, "10:00", "11:00"), existing)
	require.True(t, r.OK(), "adjacent slots do not overlap")

	r = ValidateSlot(weekly(time.Tuesday, "09:30", "10:30"), existing)
	require.True(t, r.OK(), "different day of week is a different key")
}

func TestValidateSlot_OverlapMatchesIntervalRule(t *testing.T) {
	base := weekly(time.Wednesday, "10:00", "12:00")
	clocks := []string{"08:00", "09:00", "10:00", "11:00", "12:00", "13:00"}

	for _, s := range clocks {
		for _, e := range clocks {
			start, end := model.MustClock(s), model.MustClock(e)
			if start >= end {
				continue
			}
			candidate := weekly(time.Wednesday, s, e)
			r := ValidateSlot(candidate, []model.TimeSlot{base})

			overlaps := start < base.EndTime && base.StartTime < end
			identical := start == base.StartTime && end == base.EndTime
			switch {
			case identical:
				require.Equal(t, 1, r.Count(CodeDuplicate), "%s-%s", s, e)
				require.Zero(t, r.Count(CodeOverlap), "%s-%s", s, e)
			case overlaps:
				require.Equal(t, 1, r.Count(CodeOverlap), "%s-%s", s, e)
			default:
				require.Zero(t, r.Count(CodeOverlap), "%s-%s", s, e)
			}
		}
	}
}

func TestValidateSlot_InvalidRange(t *testing.T) {
	r := ValidateSlot(weekly(time.Monday, "10:00", "10:00"), nil)
	require.Equal(t, 1, r.Count(CodeInvalidRange))

	r = ValidateSlot(weekly(time.Monday, "11:00", "10:00"), nil)
	require.Equal(t, 1, r.Count(CodeInvalidRange))
}

func TestValidateSlot_ShortSlotIsWarningOnly(t *testing.T) {
	r := ValidateSlot(weekly(time.Monday, "10:00", "10:15"), nil)
	require.True(t, r.OK())
	require.Len(t, r.Warnings, 1)
	require.Equal(t, CodeShortSlot, r.Warnings[0].Code)
}

func TestValidateSlot_MissingRecurrence(t *testing.T) {
	r := ValidateSlot(model.TimeSlot{StartTime: model.MustClock("09:00"), EndTime: model.MustClock("10:00")}, nil)
	require.Equal(t, 1, r.Count(CodeMissingRecurrence))
}

func TestValidateSlots_DuplicateReportedOnce(t *testing.T) {
	date := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	slots := []model.TimeSlot{
		dated(date, "09:00", "10:00"),
		dated(date, "09:00", "10:00"),
	}

	r := ValidateSlots(slots)
	require.Equal(t, 1, r.Count(CodeDuplicate))
	require.Len(t, r.Errors, 1)
	require.Equal(t, 1, r.Errors[0].SlotIndex)
}

func TestValidateSlots_SameTimeDifferentDates(t *testing.T) {
	d1 := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	r := ValidateSlots([]model.TimeSlot{dated(d1, "09:00", "10:00"), dated(d2, "09:00", "10:00")})
	require.True(t, r.OK())
}

func TestValidateDateRange(t *testing.T) {
	start := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	r := ValidateDateRange(start, start, today)
	require.Equal(t, 1, r.Count(CodeInvalidDateRange))

	r = ValidateDateRange(start, start.AddDate(0, 0, -1), today)
	require.Equal(t, 1, r.Count(CodeInvalidDateRange))

	r = ValidateDateRange(start, start.AddDate(0, 1, 0), today)
	require.True(t, r.OK())
	require.Empty(t, r.Warnings)

	past := today.AddDate(0, 0, -3)
	r = ValidateDateRange(past, past.AddDate(0, 0, 10), today)
	require.True(t, r.OK(), "past start is a warning, not an error")
	require.Len(t, r.Warnings, 1)
	require.Equal(t, CodeStartInPast, r.Warnings[0].Code)

	r = ValidateDateRange(start, start.AddDate(0, 0, 400), today)
	require.True(t, r.OK())
	require.Equal(t, CodeRangeTooLong, r.Warnings[0].Code)
}

func TestValidateAvailability(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)

	recurring := model.ExpertAvailability{
		Kind:      model.AvailabilityRecurring,
		StartDate: start,
		EndDate:   end,
		Slots: []model.TimeSlot{
			weekly(time.Monday, "09:00", "10:00"),
			weekly(time.Monday, "10:00", "11:00"),
			weekly(time.Friday, "09:00", "10:00"),
		},
	}
	require.True(t, ValidateAvailability(recurring, today).OK())

	recurring.Slots = append(recurring.Slots, weekly(time.Monday, "10:30", "11:30"))
	require.Equal(t, 1, ValidateAvailability(recurring, today).Count(CodeOverlap))

	outside := start.AddDate(0, 1, 0)
	dateRange := model.ExpertAvailability{
		Kind:      model.AvailabilityDateRange,
		StartDate: start,
		EndDate:   end,
		Slots:     []model.TimeSlot{dated(outside, "09:00", "10:00")},
	}
	require.Equal(t, 1, ValidateAvailability(dateRange, today).Count(CodeOutsideWindow))

	dateRange.Slots = []model.TimeSlot{weekly(time.Monday, "09:00", "10:00")}
	require.Equal(t, 1, ValidateAvailability(dateRange, today).Count(CodeMissingRecurrence))

	dateRange.Slots = nil
	require.Equal(t, 1, ValidateAvailability(dateRange, today).Count(CodeNoSlots))

	dateRange.Kind = "monthly"
	require.Equal(t, 1, ValidateAvailability(dateRange, today).Count(CodeInvalidKind))
}

func TestIsBookable(t *testing.T) {
	start := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) // понедельник
	w := model.ExpertAvailability{
		Kind:      model.AvailabilityRecurring,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 30),
		Slots: []model.TimeSlot{
			weekly(time.Monday, "09:00", "12:00"),
			weekly(time.Tuesday, "09:00", "10:00"),
		},
	}
	w.Slots[1].IsBooked = true

	slot, ok := IsBookable(w, start, model.MustClock("10:00"), model.MustClock("11:00"))
	require.True(t, ok)
	require.Equal(t, model.MustClock("09:00"), slot.StartTime)

	_, ok = IsBookable(w, start, model.MustClock("11:30"), model.MustClock("12:30"))
	require.False(t, ok, "exceeds slot end")

	_, ok = IsBookable(w, start.AddDate(0, 0, 1), model.MustClock("09:00"), model.MustClock("10:00"))
	require.False(t, ok, "booked slot")

	_, ok = IsBookable(w, start.AddDate(0, 0, 35), model.MustClock("09:00"), model.MustClock("10:00"))
	require.False(t, ok, "outside window")

	_, ok = IsBookable(w, start, model.MustClock("10:00"), model.MustClock("10:00"))
	require.False(t, ok)
}

func TestOpenSlotsWithoutTaken(t *testing.T) {
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	w := model.ExpertAvailability{
		Kind:      model.AvailabilityRecurring,
		StartDate: monday,
		EndDate:   monday.AddDate(0, 0, 7),
		Slots: []model.TimeSlot{
			weekly(time.Monday, "11:00", "12:00"),
			weekly(time.Monday, "09:00", "10:00"),
		},
	}

	open := OpenSlots([]model.ExpertAvailability{w}, monday)
	require.Len(t, open, 2)
	require.Equal(t, model.MustClock("09:00"), open[0].StartTime)

	taken := []model.Appointment{
		{StartTime: model.MustClock("09:00"), EndTime: model.MustClock("10:00"), Status: model.AppointmentConfirmed},
		{StartTime: model.MustClock("11:00"), EndTime: model.MustClock("12:00"), Status: model.AppointmentCancelled},
	}
	free := WithoutTaken(open, taken)
	require.Len(t, free, 1)
	require.Equal(t, model.MustClock("11:00"), free[0].StartTime)
}
