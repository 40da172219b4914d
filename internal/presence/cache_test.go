package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCache(rdb, zap.NewNop())
}

func TestRedisCache_PutGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	expertID := uuid.New()

	got, err := c.Get(ctx, expertID)
	require.NoError(t, err)
	require.Nil(t, got)

	p := model.Presence{ExpertID: expertID, Status: model.PresenceAvailable, UpdatedAt: time.Now().UTC()}
	require.NoError(t, c.Put(ctx, p))

	got, err = c.Get(ctx, expertID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, model.PresenceAvailable, got.Status)
	require.True(t, got.IsOnline())
}

func TestRedisCache_RelayDeliversToHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := newTestCache(t)
	hub := pubsub.NewHub[model.Presence](4)
	defer hub.Close()

	updates, dispose := hub.Subscribe()
	defer dispose()

	done := make(chan error, 1)
	go func() { done <- c.Relay(ctx, hub) }()

	expertID := uuid.New()
	// подписка в relay поднимается асинхронно, повторяем публикацию до доставки
	require.Eventually(t, func() bool {
		_ = c.Put(ctx, model.Presence{ExpertID: expertID, Status: model.PresenceBusy})
		select {
		case p := <-updates:
			return p.ExpertID == expertID && p.Status == model.PresenceBusy
		case <-time.After(20 * time.Millisecond):
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	hub := pubsub.NewHub[model.Presence](1)
	defer hub.Close()
	updates, dispose := hub.Subscribe()
	defer dispose()

	c := NewMemoryCache(hub)
	id := uuid.New()

	got, err := c.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, c.Put(ctx, model.Presence{ExpertID: id, Status: model.PresenceAway}))
	got, err = c.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.PresenceAway, got.Status)
	require.Equal(t, id, (<-updates).ExpertID)
}
