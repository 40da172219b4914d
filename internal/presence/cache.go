// Package presence хранит последний статус экспертов в redis
// и разносит изменения между инстансами API через redis pub/sub.
package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Freeeeeet/wellness_api/internal/model"
	"github.com/Freeeeeet/wellness_api/internal/pubsub"
)

const (
	keyPrefix     = "presence:"
	ChangeChannel = "presence:changed"
	DefaultTTL    = 24 * time.Hour
)

type Cache interface {
	Put(ctx context.Context, p model.Presence) error
	Get(ctx context.Context, expertID uuid.UUID) (*model.Presence, error)
}

type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		// допускаем голый host:port
		opt = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedisCache(rdb *redis.Client, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		rdb:    rdb,
		ttl:    DefaultTTL,
		logger: logger,
	}
}

// Put пишет статус и публикует изменение одной транзакцией
func (c *RedisCache) Put(ctx context.Context, p model.Presence) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal presence: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, keyPrefix+p.ExpertID.String(), data, c.ttl)
	pipe.Publish(ctx, ChangeChannel, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put presence: %w", err)
	}
	return nil
}

// Get возвращает nil, nil если в кэше ничего нет
func (c *RedisCache) Get(ctx context.Context, expertID uuid.UUID) (*model.Presence, error) {
	data, err := c.rdb.Get(ctx, keyPrefix+expertID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get presence: %w", err)
	}

	var p model.Presence
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal presence: %w", err)
	}
	return &p, nil
}

// Relay перекладывает изменения из redis pub/sub в локальный hub до отмены ctx.
// Так подписчики websocket получают статусы, выставленные другим инстансом.
func (c *RedisCache) Relay(ctx context.Context, hub *pubsub.Hub[model.Presence]) error {
	sub := c.rdb.Subscribe(ctx, ChangeChannel)
	defer sub.Close()

	// дожидаемся подтверждения подписки, иначе первые сообщения теряются
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", ChangeChannel, err)
	}

	c.logger.Info("Presence relay started", zap.String("channel", ChangeChannel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Presence relay stopped")
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var p model.Presence
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				c.logger.Warn("Skipping malformed presence message", zap.Error(err))
				continue
			}
			hub.Publish(p)
		}
	}
}
