package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/events"
	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/presence"
)

func countType(r *events.Recorder, typ events.Type) int {
	n := 0
	for _, tp := range r.Types() {
		if tp == typ {
			n++
		}
	}
	return n
}

func TestPresence_SetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	expert := h.expert(30)

	ch, dispose := h.hub.Subscribe()
	defer dispose()

	first, err := h.Presence.Set(ctx, expert.ID, model.PresenceAvailable)
	require.NoError(t, err)
	second, err := h.Presence.Set(ctx, expert.ID, model.PresenceAvailable)
	require.NoError(t, err)

	require.Equal(t, first.UpdatedAt, second.UpdatedAt)
	require.Equal(t, 1, countType(h.recorder, events.ExpertStatusChanged))
	require.Len(t, ch, 1, "subscribers see a single change")

	got := <-ch
	require.Equal(t, expert.ID, got.ExpertID)
	require.Equal(t, model.PresenceAvailable, got.Status)
}

func TestPresence_LostCacheIsRestoredWithoutEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	expert := h.expert(30)

	_, err := h.Presence.Set(ctx, expert.ID, model.PresenceAway)
	require.NoError(t, err)

	h.Presence.cache = presence.NewMemoryCache(h.hub)
	_, err = h.Presence.Set(ctx, expert.ID, model.PresenceAway)
	require.NoError(t, err)

	cached, err := h.Presence.cache.Get(ctx, expert.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, model.PresenceAway, cached.Status)
	require.Equal(t, 1, countType(h.recorder, events.ExpertStatusChanged))
}

func TestPresence_GetFallsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	expert := h.expert(30)

	p, err := h.Presence.Get(ctx, expert.ID)
	require.NoError(t, err)
	require.Equal(t, model.PresenceOffline, p.Status)

	_, err = h.presenceDB.Upsert(ctx, &model.Presence{ExpertID: expert.ID, Status: model.PresenceBusy})
	require.NoError(t, err)

	p, err = h.Presence.Get(ctx, expert.ID)
	require.NoError(t, err)
	require.Equal(t, model.PresenceBusy, p.Status, "database answers when the cache is cold")

	online, err := h.Presence.IsOnline(ctx, expert.ID)
	require.NoError(t, err)
	require.False(t, online)
}

func TestPresence_Validation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	expert := h.expert(30)
	client := h.client()

	_, err := h.Presence.Set(ctx, expert.ID, model.PresenceStatus("dnd"))
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.Presence.Set(ctx, client.ID, model.PresenceAvailable)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = h.Presence.Set(ctx, uuid.New(), model.PresenceAvailable)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPresence_SetFromLinkedTelegram(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert := h.expert(30)
	tg := int64(424242)
	expert.TelegramID = &tg

	linked, err := h.Experts.GetByTelegram(ctx, tg)
	require.NoError(t, err)
	p, err := h.Presence.Set(ctx, linked.ID, model.PresenceAvailable)
	require.NoError(t, err)
	require.Equal(t, expert.ID, p.ExpertID)

	_, err = h.Experts.GetByTelegram(ctx, 1)
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}
