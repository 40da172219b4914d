package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/repository"
)

func TestCallsActivateKeepsExistingStartTime(t *testing.T) {
	ctx := context.Background()
	calls := NewCalls(NewPayments())

	first := time.Now().Add(-2 * time.Minute)
	call := &model.CallSession{
		UserID:          uuid.New(),
		ExpertID:        uuid.New(),
		Kind:            model.CallKindVoice,
		Status:          model.CallStatusPending,
		DurationMinutes: 15,
		StartTime:       &first,
	}
	require.NoError(t, calls.Create(ctx, call))

	active, err := calls.Activate(ctx, call.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, model.CallStatusActive, active.Status)
	require.True(t, first.Equal(*active.StartTime))

	_, err = calls.Activate(ctx, call.ID, time.Now())
	require.ErrorIs(t, err, repository.ErrStaleTransition)
}

func TestCallsActivateSetsMissingStartTime(t *testing.T) {
	ctx := context.Background()
	calls := NewCalls(NewPayments())

	call := &model.CallSession{Status: model.CallStatusPending, Kind: model.CallKindVideo, DurationMinutes: 30}
	require.NoError(t, calls.Create(ctx, call))

	at := time.Now()
	active, err := calls.Activate(ctx, call.ID, at)
	require.NoError(t, err)
	require.NotNil(t, active.StartTime)
	require.True(t, at.Equal(*active.StartTime))
}
