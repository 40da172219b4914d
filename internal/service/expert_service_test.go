package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/wellness_api/internal/apperr"
	"github.com/Freeeeeet/wellness_api/internal/model"
)

func TestExpert_CatalogueShowsPresence(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	online := h.expert(30)
	offline := h.expert(40)
	inactive := h.expert(50)
	inactive.IsActive = false
	h.client()

	_, err := h.Presence.Set(ctx, online.ID, model.PresenceAvailable)
	require.NoError(t, err)

	cards, err := h.Experts.Catalogue(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)

	byID := map[uuid.UUID]ExpertCard{}
	for _, c := range cards {
		byID[c.ID] = c
	}
	require.True(t, byID[online.ID].Online)
	require.Equal(t, model.PresenceAvailable, byID[online.ID].Presence)
	require.False(t, byID[offline.ID].Online)
	require.Equal(t, model.PresenceOffline, byID[offline.ID].Presence)
}

func TestExpert_Get(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert := h.expert(30)
	client := h.client()

	got, err := h.Experts.Get(ctx, expert.ID)
	require.NoError(t, err)
	require.Equal(t, expert.ID, got.ID)

	_, err = h.Experts.Get(ctx, client.ID)
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = h.Experts.GetUser(ctx, uuid.New())
	require.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestExpert_AdminUpdate(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	expert := h.expert(30)
	admin := h.users.Add(&model.User{FullName: "Admin", Role: model.RoleAdmin, IsActive: true})

	rate := int64(45)
	cur := " usd "
	_, err := h.Experts.AdminUpdate(ctx, expert, expert.ID, model.ExpertUpdate{RatePerMinute: &rate})
	require.True(t, apperr.Is(err, apperr.KindForbidden))

	updated, err := h.Experts.AdminUpdate(ctx, admin, expert.ID, model.ExpertUpdate{RatePerMinute: &rate, Currency: &cur})
	require.NoError(t, err)
	require.Equal(t, int64(45), updated.RatePerMinute)
	require.Equal(t, "USD", updated.Currency)
	require.Equal(t, "Dr. Meera", updated.FullName)

	bad := "RUPEE"
	_, err = h.Experts.AdminUpdate(ctx, admin, expert.ID, model.ExpertUpdate{Currency: &bad})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	negative := int64(-1)
	_, err = h.Experts.AdminUpdate(ctx, admin, expert.ID, model.ExpertUpdate{RatePerMinute: &negative})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	blank := "  "
	_, err = h.Experts.AdminUpdate(ctx, admin, expert.ID, model.ExpertUpdate{FullName: &blank})
	require.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.Experts.AdminUpdate(ctx, admin, uuid.New(), model.ExpertUpdate{RatePerMinute: &rate})
	require.True(t, apperr.Is(err, apperr.KindNotFound))

	quote, err := h.Calls.Quote(ctx, expert.ID, model.CallKindVoice, 10)
	require.NoError(t, err)
	require.Equal(t, int64(450), quote.Cost)
	require.Equal(t, "USD", quote.Currency)
}
