package calendar

import (
	"context"
	"strconv"
	"sync"
)

// MemorySyncer календарь в памяти, для тестов и локального запуска без Google
type MemorySyncer struct {
	mu      sync.Mutex
	seq     int
	Events  map[string]Entry
	Removed []string
}

func (f *MemorySyncer) Upsert(_ context.Context, e Entry) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Events == nil {
		f.Events = make(map[string]Entry)
	}
	id := ""
	if e.Appointment.CalendarEventID != nil {
		id = *e.Appointment.CalendarEventID
	} else {
		f.seq++
		id = "evt_" + strconv.Itoa(f.seq)
	}
	f.Events[id] = e
	return id, nil
}

func (f *MemorySyncer) Remove(_ context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Events, eventID)
	f.Removed = append(f.Removed, eventID)
	return nil
}
