package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_api/internal/model"
)

func TestEventFor(t *testing.T) {
	notes := "first session"
	a := model.Appointment{
		ID:              uuid.New(),
		AppointmentDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       model.MustClock("10:00"),
		EndTime:         model.MustClock("10:45"),
		Notes:           &notes,
	}

	ev := eventFor(Entry{Appointment: a, ExpertName: "Dr. Rao", UserName: "Asha"})
	require.Equal(t, "Session with Asha", ev.Summary)
	require.Equal(t, "2026-03-02T10:00:00Z", ev.Start.DateTime)
	require.Equal(t, "2026-03-02T10:45:00Z", ev.End.DateTime)
	require.Contains(t, ev.Description, notes)
	require.Equal(t, a.ID.String(), ev.ExtendedProperties.Private["appointment_id"])
}

func TestNoopSyncer(t *testing.T) {
	var s Syncer = NoopSyncer{}
	id, err := s.Upsert(context.Background(), Entry{})
	require.NoError(t, err)
	require.Empty(t, id)
	require.NoError(t, s.Remove(context.Background(), "evt"))
}
