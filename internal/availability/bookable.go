package availability

import (
	"sort"
	"time"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

// IsBookable ищет свободный слот окна, который целиком покрывает [start,end) в дату date.
func IsBookable(a model.ExpertAvailability, date time.Time, start, end model.ClockTime) (*model.TimeSlot, bool) {
	if start >= end || !a.Covers(date) {
		return nil, false
	}

	for i := range a.Slots {
		slot := &a.Slots[i]
		if slot.IsBooked || !slot.MatchesDate(date) {
			continue
		}
		if slot.Contains(start, end) {
			return slot, true
		}
	}

	return nil, false
}

// OpenSlots свободные слоты всех окон на дату, отсортированные по времени начала
func OpenSlots(windows []model.ExpertAvailability, date time.Time) []model.TimeSlot {
	var open []model.TimeSlot
	for _, w := range windows {
		if !w.Covers(date) {
			continue
		}
		for _, slot := range w.Slots {
			if !slot.IsBooked && slot.MatchesDate(date) {
				open = append(open, slot)
			}
		}
	}

	sort.Slice(open, func(i, j int) bool {
		return open[i].StartTime < open[j].StartTime
	})
	return open
}

// WithoutTaken убирает слоты, пересекающиеся с уже занятыми интервалами на эту дату.
// Нужен для recurring слотов: их флаг is_booked не привязан к дате.
func WithoutTaken(slots []model.TimeSlot, taken []model.Appointment) []model.TimeSlot {
	var free []model.TimeSlot
	for _, slot := range slots {
		busy := false
		for _, a := range taken {
			if a.Status.IsActive() && slot.Overlaps(a.StartTime, a.EndTime) {
				busy = true
				break
			}
		}
		if !busy {
			free = append(free, slot)
		}
	}
	return free
}
