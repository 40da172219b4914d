package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCallStatus_OnlyMovesForward(t *testing.T) {
	all := []CallStatus{CallStatusPending, CallStatusActive, CallStatusEnded, CallStatusCancelled}

	allowed := map[[2]CallStatus]bool{
		{CallStatusPending, CallStatusActive}:    true,
		{CallStatusPending, CallStatusCancelled}: true,
		{CallStatusActive, CallStatusEnded}:      true,
	}

	for _, from := range all {
		for _, to := range all {
			require.Equal(t, allowed[[2]CallStatus{from, to}], from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	require.False(t, CallStatusEnded.CanTransitionTo(CallStatusActive))
	require.True(t, CallStatusEnded.IsTerminal())
	require.True(t, CallStatusCancelled.IsTerminal())
	require.False(t, CallStatusActive.IsTerminal())
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	require.True(t, AppointmentPending.CanTransitionTo(AppointmentConfirmed))
	require.True(t, AppointmentConfirmed.CanTransitionTo(AppointmentCancelled))
	require.True(t, AppointmentConfirmed.CanTransitionTo(AppointmentCompleted))
	require.False(t, AppointmentPending.CanTransitionTo(AppointmentCompleted))
	require.False(t, AppointmentCancelled.CanTransitionTo(AppointmentConfirmed))
	require.False(t, AppointmentCompleted.CanTransitionTo(AppointmentCancelled))
}

func TestComputeCost(t *testing.T) {
	require.Equal(t, int64(900), ComputeCost(30, 30))
	require.Equal(t, int64(0), ComputeCost(30, 0))
}

func TestParseClock(t *testing.T) {
	c, err := ParseClock("09:30")
	require.NoError(t, err)
	require.Equal(t, ClockTime(570), c)
	require.Equal(t, "09:30", c.String())

	c, err = ParseClock("24:00")
	require.NoError(t, err)
	require.Equal(t, ClockTime(1440), c)

	for _, bad := range []string{"", "9", "25:00", "10:60", "24:30", "ab:cd", "09:30xyz", "09:30:59", " 09:30"} {
		_, err := ParseClock(bad)
		require.Error(t, err, bad)
	}
}

func TestClockTime_JSON(t *testing.T) {
	var slot struct {
		Start ClockTime `json:"start"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start":"14:05"}`), &slot))
	require.Equal(t, MustClock("14:05"), slot.Start)

	b, err := json.Marshal(slot)
	require.NoError(t, err)
	require.JSONEq(t, `{"start":"14:05"}`, string(b))

	require.Error(t, json.Unmarshal([]byte(`{"start":"99:00"}`), &slot))
}

func TestClockTime_PgRoundTrip(t *testing.T) {
	v, err := MustClock("18:45").TimeValue()
	require.NoError(t, err)

	var c ClockTime
	require.NoError(t, c.ScanTime(v))
	require.Equal(t, MustClock("18:45"), c)
}

func TestTimeSlot_RecurrenceKeyAndMatch(t *testing.T) {
	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	recurring := TimeSlot{StartTime: MustClock("09:00"), EndTime: MustClock("10:00"), DayOfWeek: Weekday(time.Monday)}
	require.Equal(t, "dow:1", recurring.RecurrenceKey())
	require.True(t, recurring.MatchesDate(monday))
	require.False(t, recurring.MatchesDate(monday.AddDate(0, 0, 1)))

	dated := TimeSlot{StartTime: MustClock("09:00"), EndTime: MustClock("10:00"), SpecificDate: &monday}
	require.Equal(t, "date:2026-10-19", dated.RecurrenceKey())
	require.True(t, dated.MatchesDate(monday.Add(15*time.Hour)))

	require.True(t, recurring.Overlaps(MustClock("09:30"), MustClock("10:30")))
	require.False(t, recurring.Overlaps(MustClock("10:00"), MustClock("11:00")))
	require.True(t, recurring.Contains(MustClock("09:00"), MustClock("09:30")))
	require.False(t, recurring.Contains(MustClock("09:30"), MustClock("10:30")))
}

func TestPresence_IsOnline(t *testing.T) {
	require.True(t, Presence{Status: PresenceAvailable}.IsOnline())
	for _, s := range []PresenceStatus{PresenceBusy, PresenceAway, PresenceOffline} {
		require.False(t, Presence{Status: s}.IsOnline())
	}
	require.False(t, PresenceStatus("sleeping").Valid())
}

func TestCallSession_ExpiresAt(t *testing.T) {
	s := CallSession{DurationMinutes: 30}
	require.Nil(t, s.ExpiresAt())

	start := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	s.StartTime = &start
	require.Equal(t, start.Add(30*time.Minute), *s.ExpiresAt())
}
