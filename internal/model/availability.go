package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AvailabilityKind string

const (
	AvailabilityDateRange AvailabilityKind = "date_range" // слоты на конкретные даты
	AvailabilityRecurring AvailabilityKind = "recurring"  // еженедельные слоты по дням недели
)

func (k AvailabilityKind) Valid() bool {
	return k == AvailabilityDateRange || k == AvailabilityRecurring
}

// ExpertAvailability окно, в котором эксперт принимает записи
type ExpertAvailability struct {
	ID        uuid.UUID        `json:"id"`
	ExpertID  uuid.UUID        `json:"expert_id"`
	StartDate time.Time        `json:"start_date"`
	EndDate   time.Time        `json:"end_date"`
	Kind      AvailabilityKind `json:"availability_type"`
	Slots     []TimeSlot       `json:"time_slots"`
	CreatedAt time.Time        `json:"created_at"`
}

// Covers проверяет что дата попадает в окно (включительно).
func (a *ExpertAvailability) Covers(date time.Time) bool {
	d := DateOf(date)
	return !d.Before(DateOf(a.StartDate)) && !d.After(DateOf(a.EndDate))
}

type TimeSlot struct {
	ID             uuid.UUID     `json:"id"`
	AvailabilityID uuid.UUID     `json:"availability_id"`
	StartTime      ClockTime     `json:"start_time"`
	EndTime        ClockTime     `json:"end_time"`
	DayOfWeek      *time.Weekday `json:"day_of_week,omitempty"`   // для recurring, 0 = Sunday
	SpecificDate   *time.Time    `json:"specific_date,omitempty"` // для date_range
	IsBooked       bool          `json:"is_booked"`
}

// RecurrenceKey ключ, по которому слоты сравниваются на пересечение:
// день недели для recurring или конкретная дата для date_range.
func (s *TimeSlot) RecurrenceKey() string {
	switch {
	case s.SpecificDate != nil:
		return "date:" + s.SpecificDate.Format(time.DateOnly)
	case s.DayOfWeek != nil:
		return fmt.Sprintf("dow:%d", int(*s.DayOfWeek))
	default:
		return ""
	}
}

// Duration длительность слота в минутах
func (s *TimeSlot) Duration() int {
	return int(s.EndTime - s.StartTime)
}

// Overlaps полуинтервалы [start,end) пересекаются
func (s *TimeSlot) Overlaps(start, end ClockTime) bool {
	return start < s.EndTime && end > s.StartTime
}

// Contains интервал [start,end) целиком внутри слота
func (s *TimeSlot) Contains(start, end ClockTime) bool {
	return start >= s.StartTime && end <= s.EndTime
}

// MatchesDate слот применим к дате: совпадает день недели или конкретная дата.
func (s *TimeSlot) MatchesDate(date time.Time) bool {
	if s.SpecificDate != nil {
		return DateOf(*s.SpecificDate).Equal(DateOf(date))
	}
	if s.DayOfWeek != nil {
		return *s.DayOfWeek == date.Weekday()
	}
	return false
}

func Weekday(d time.Weekday) *time.Weekday {
	return &d
}
