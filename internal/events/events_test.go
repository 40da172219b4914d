package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	sessionID := uuid.New()
	data, err := Encode(Event{
		Type:      CallRequested,
		ExpertID:  uuid.New(),
		SessionID: &sessionID,
		Minutes:   30,
		Amount:    900,
		Currency:  "INR",
	})
	require.NoError(t, err)

	ev, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, CallRequested, ev.Type)
	require.Equal(t, sessionID, *ev.SessionID)
	require.False(t, ev.OccurredAt.IsZero())
}

func TestEncodeRejectsEmptyType(t *testing.T) {
	_, err := Encode(Event{ExpertID: uuid.New()})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestDecodeRejectsMissingExpert(t *testing.T) {
	_, err := Decode([]byte(`{"event_type":"call.ended"}`))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Decode([]byte(`not json`))
	require.ErrorIs(t, err, ErrMalformed)
}

func TestRecorder(t *testing.T) {
	var r Recorder
	_, ok := r.Last()
	require.False(t, ok)

	require.NoError(t, r.Publish(context.Background(), Event{Type: CallAccepted}))
	require.NoError(t, r.Publish(context.Background(), Event{Type: CallEnded}))
	require.Equal(t, []Type{CallAccepted, CallEnded}, r.Types())

	last, ok := r.Last()
	require.True(t, ok)
	require.Equal(t, CallEnded, last.Type)
}
