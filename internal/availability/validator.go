// Package availability проверяет слоты и окна доступности экспертов.
// Все функции чистые: без I/O и без обращения к часам, "сегодня" передаётся явно.
// Проверки здесь подсказки для пользователя, окончательно конфликт решает база.
package availability

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

const (
	MinSlotMinutes = 30
	MaxRangeDays   = 365
)

type Code string

const (
	CodeInvalidRange      Code = "invalid_time_range"
	CodeShortSlot         Code = "short_slot"
	CodeOverlap           Code = "overlap"
	CodeDuplicate         Code = "duplicate"
	CodeMissingRecurrence Code = "missing_recurrence"
	CodeOutsideWindow     Code = "outside_window"
	CodeInvalidDateRange  Code = "invalid_date_range"
	CodeStartInPast       Code = "start_in_past"
	CodeRangeTooLong      Code = "range_too_long"
	CodeInvalidKind       Code = "invalid_kind"
	CodeNoSlots           Code = "no_slots"
)

// Issue одна найденная проблема. SlotIndex = -1 для проблем окна целиком.
type Issue struct {
	Code      Code   `json:"code"`
	SlotIndex int    `json:"slot_index"`
	Message   string `json:"message"`
}

type Report struct {
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// OK нет блокирующих ошибок (предупреждения допустимы)
func (r Report) OK() bool {
	return len(r.Errors) == 0
}

// Count количество ошибок с данным кодом
func (r Report) Count(code Code) int {
	n := 0
	for _, issue := range r.Errors {
		if issue.Code == code {
			n++
		}
	}
	return n
}

func (r *Report) addError(code Code, idx int, format string, args ...any) {
	r.Errors = append(r.Errors, Issue{Code: code, SlotIndex: idx, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) addWarning(code Code, idx int, format string, args ...any) {
	r.Warnings = append(r.Warnings, Issue{Code: code, SlotIndex: idx, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) merge(other Report) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// ValidateSlot проверяет слот-кандидат против уже существующих слотов.
// Сравниваются только слоты с тем же ключом (день недели или дата).
func ValidateSlot(candidate model.TimeSlot, existing []model.TimeSlot) Report {
	return validateSlot(candidate, 0, existing)
}

func validateSlot(candidate model.TimeSlot, idx int, existing []model.TimeSlot) Report {
	var r Report

	key := candidate.RecurrenceKey()
	if key == "" {
		r.addError(CodeMissingRecurrence, idx, "slot needs a day of week or a specific date")
		return r
	}

	if candidate.StartTime >= candidate.EndTime {
		r.addError(CodeInvalidRange, idx, "start time %s must be before end time %s", candidate.StartTime, candidate.EndTime)
		return r
	}

	if candidate.Duration() < MinSlotMinutes {
		r.addWarning(CodeShortSlot, idx, "slot %s-%s is shorter than %d minutes", candidate.StartTime, candidate.EndTime, MinSlotMinutes)
	}

	for i := range existing {
		other := &existing[i]
		if other.RecurrenceKey() != key {
			continue
		}

		// Дубликат сообщаем только как дубликат, без дополнительной ошибки пересечения
		if other.StartTime == candidate.StartTime && other.EndTime == candidate.EndTime {
			r.addError(CodeDuplicate, idx, "duplicate slot %s-%s", candidate.StartTime, candidate.EndTime)
			continue
		}

		if other.Overlaps(candidate.StartTime, candidate.EndTime) {
			r.addError(CodeOverlap, idx, "slot %s-%s overlaps %s-%s", candidate.StartTime, candidate.EndTime, other.StartTime, other.EndTime)
		}
	}

	return r
}

// ValidateSlots проверяет пачку слотов: каждый против предыдущих в пачке.
// Пара одинаковых слотов даёт ровно одну ошибку дубликата.
func ValidateSlots(slots []model.TimeSlot) Report {
	var r Report
	for i := range slots {
		r.merge(validateSlot(slots[i], i, slots[:i]))
	}
	return r
}

// ValidateDateRange проверяет границы окна по датам
func ValidateDateRange(start, end, today time.Time) Report {
	var r Report

	s, e := model.DateOf(start), model.DateOf(end)
	if !e.After(s) {
		r.addError(CodeInvalidDateRange, -1, "end date %s must be after start date %s", e.Format(time.DateOnly), s.Format(time.DateOnly))
		return r
	}

	if s.Before(model.DateOf(today)) {
		r.addWarning(CodeStartInPast, -1, "start date %s is in the past", s.Format(time.DateOnly))
	}

	if e.Sub(s) > MaxRangeDays*24*time.Hour {
		r.addWarning(CodeRangeTooLong, -1, "date range is longer than %d days", MaxRangeDays)
	}

	return r
}

// ValidateAvailability полная проверка окна перед сохранением
func ValidateAvailability(a model.ExpertAvailability, today time.Time) Report {
	var r Report

	if !a.Kind.Valid() {
		r.addError(CodeInvalidKind, -1, "unknown availability type %q", a.Kind)
		return r
	}

	r.merge(ValidateDateRange(a.StartDate, a.EndDate, today))

	if len(a.Slots) == 0 {
		r.addError(CodeNoSlots, -1, "at least one time slot is required")
		return r
	}

	for i, slot := range a.Slots {
		switch a.Kind {
		case model.AvailabilityRecurring:
			if slot.DayOfWeek == nil || slot.SpecificDate != nil {
				r.addError(CodeMissingRecurrence, i, "recurring slot needs a day of week only")
			}
		case model.AvailabilityDateRange:
			if slot.SpecificDate == nil || slot.DayOfWeek != nil {
				r.addError(CodeMissingRecurrence, i, "date range slot needs a specific date only")
			} else if !a.Covers(*slot.SpecificDate) {
				r.addError(CodeOutsideWindow, i, "slot date %s is outside %s..%s",
					slot.SpecificDate.Format(time.DateOnly), a.StartDate.Format(time.DateOnly), a.EndDate.Format(time.DateOnly))
			}
		}
	}
	if !r.OK() {
		return r
	}

	r.merge(ValidateSlots(a.Slots))
	return r
}
