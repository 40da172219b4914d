package callflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type recordingEffects struct {
	rejoins   int
	ends      int
	rejoinErr error
	endErr    error
}

func (r *recordingEffects) Rejoin(context.Context) error {
	r.rejoins++
	return r.rejoinErr
}

func (r *recordingEffects) EndSession(context.Context) error {
	r.ends++
	return r.endErr
}

func TestFlow_UserNeedsConfirmation(t *testing.T) {
	ctx := context.Background()
	fx := &recordingEffects{}
	f := New(RoleUser)

	state, err := f.Apply(ctx, ActionDrop, fx)
	require.NoError(t, err)
	require.Equal(t, StateInterrupted, state)

	state, err = f.Apply(ctx, ActionDone, fx)
	require.NoError(t, err)
	require.Equal(t, StateConfirmingEnd, state)
	require.Zero(t, fx.ends)

	state, err = f.Apply(ctx, ActionConfirm, fx)
	require.NoError(t, err)
	require.Equal(t, StateEnded, state)
	require.Equal(t, 1, fx.ends)

	_, err = f.Apply(ctx, ActionRejoin, fx)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestFlow_ExpertEndsDirectly(t *testing.T) {
	ctx := context.Background()
	fx := &recordingEffects{}
	f := New(RoleExpert)

	_, err := f.Apply(ctx, ActionDrop, fx)
	require.NoError(t, err)

	state, err := f.Apply(ctx, ActionDone, fx)
	require.NoError(t, err)
	require.Equal(t, StateEnded, state)
	require.Equal(t, 1, fx.ends)
}

func TestFlow_DismissThenRejoinKeepsSession(t *testing.T) {
	ctx := context.Background()
	fx := &recordingEffects{}
	f := New(RoleUser)

	for _, a := range []Action{ActionDrop, ActionDone, ActionDismiss} {
		_, err := f.Apply(ctx, a, fx)
		require.NoError(t, err)
	}
	require.Equal(t, StateInterrupted, f.State())

	state, err := f.Apply(ctx, ActionRejoin, fx)
	require.NoError(t, err)
	require.Equal(t, StateConnected, state)
	require.Equal(t, 1, fx.rejoins)
	require.Zero(t, fx.ends)
}

func TestFlow_RejoinFromConfirmation(t *testing.T) {
	ctx := context.Background()
	fx := &recordingEffects{}
	f := New(RoleUser)

	for _, a := range []Action{ActionDrop, ActionDone, ActionRejoin} {
		_, err := f.Apply(ctx, a, fx)
		require.NoError(t, err)
	}
	require.Equal(t, StateConnected, f.State())
	require.Zero(t, fx.ends)
}

func TestFlow_EffectFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	fx := &recordingEffects{rejoinErr: errors.New("media server down")}
	f := New(RoleUser)

	_, err := f.Apply(ctx, ActionDrop, fx)
	require.NoError(t, err)

	state, err := f.Apply(ctx, ActionRejoin, fx)
	require.Error(t, err)
	require.Equal(t, StateInterrupted, state)
}

func TestFlow_InvalidActions(t *testing.T) {
	f := New(RoleUser)
	_, err := f.Next(ActionConfirm)
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = f.Next(ActionDone)
	require.ErrorIs(t, err, ErrInvalidAction)
}

func TestManager_PerParticipantState(t *testing.T) {
	m := NewManager()
	session := uuid.New()
	user, expert := uuid.New(), uuid.New()
	fx := &recordingEffects{}

	err := m.With(session, user, RoleUser, func(f *Flow) error {
		_, err := f.Apply(context.Background(), ActionDrop, fx)
		return err
	})
	require.NoError(t, err)

	require.Equal(t, StateInterrupted, m.State(session, user))
	require.Equal(t, StateConnected, m.State(session, expert))
	require.Equal(t, 1, m.Len())

	m.ClearSession(session)
	require.Zero(t, m.Len())
}
