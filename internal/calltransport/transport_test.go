package calltransport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestTokenTransport_JoinAndVerify(t *testing.T) {
	tr := NewTokenTransport("call-secret", time.Hour)
	channel := uuid.NewString()
	participant := uuid.New()

	ticket, err := tr.Join(context.Background(), JoinRequest{
		Channel:       channel,
		ParticipantID: participant,
		Role:          RolePublisher,
		Video:         true,
	})
	require.NoError(t, err)
	require.Equal(t, channel, ticket.Channel)
	require.True(t, ticket.Video)

	gotChannel, gotParticipant, err := tr.Verify(ticket.Token)
	require.NoError(t, err)
	require.Equal(t, channel, gotChannel)
	require.Equal(t, participant, gotParticipant)
}

func TestTokenTransport_RejectsForeignAndExpired(t *testing.T) {
	tr := NewTokenTransport("call-secret", time.Minute)
	other := NewTokenTransport("other-secret", time.Minute)

	ticket, err := other.Join(context.Background(), JoinRequest{Channel: "c", ParticipantID: uuid.New()})
	require.NoError(t, err)
	_, _, err = tr.Verify(ticket.Token)
	require.ErrorIs(t, err, ErrInvalidTicket)

	ticket, err = tr.Join(context.Background(), JoinRequest{Channel: "c", ParticipantID: uuid.New()})
	require.NoError(t, err)
	tr.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, _, err = tr.Verify(ticket.Token)
	require.ErrorIs(t, err, ErrInvalidTicket)
}

func TestTokenTransport_RequiresChannel(t *testing.T) {
	tr := NewTokenTransport("call-secret", time.Minute)
	_, err := tr.Join(context.Background(), JoinRequest{ParticipantID: uuid.New()})
	require.ErrorIs(t, err, ErrInvalidTicket)
}
