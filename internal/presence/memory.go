package presence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
)

// MemoryCache используется без REDIS_ADDR (один инстанс) и в тестах.
// Изменения сразу уходят в локальный hub, как у RedisCache через Relay.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[uuid.UUID]model.Presence
	hub   *pubsub.Hub[model.Presence]
}

func NewMemoryCache(hub *pubsub.Hub[model.Presence]) *MemoryCache {
	return &MemoryCache{
		items: make(map[uuid.UUID]model.Presence),
		hub:   hub,
	}
}

func (c *MemoryCache) Put(_ context.Context, p model.Presence) error {
	c.mu.Lock()
	c.items[p.ExpertID] = p
	c.mu.Unlock()

	if c.hub != nil {
		c.hub.Publish(p)
	}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, expertID uuid.UUID) (*model.Presence, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.items[expertID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}
