package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsPublisher struct {
	conn   *nats.Conn
	logger *zap.Logger
}

func Connect(url, name string, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return nc, nil
}

func NewNatsPublisher(conn *nats.Conn, logger *zap.Logger) *NatsPublisher {
	return &NatsPublisher{conn: conn, logger: logger}
}

// Publish доставка at-most-once; ошибку вызывающий код только логирует
func (p *NatsPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := Encode(ev)
	if err != nil {
		return err
	}

	if err := p.conn.Publish(string(ev.Type), data); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("subject", string(ev.Type)),
			zap.Error(err))
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	p.logger.Debug("Event published",
		zap.String("subject", string(ev.Type)),
		zap.String("expert_id", ev.ExpertID.String()))
	return nil
}

type Handler func(ctx context.Context, ev Event)

// Subscriber раздаёт события из NATS обработчикам по subject-шаблонам
type Subscriber struct {
	conn   *nats.Conn
	logger *zap.Logger

	mu   sync.Mutex
	subs []*nats.Subscription
}

func NewSubscriber(conn *nats.Conn, logger *zap.Logger) *Subscriber {
	return &Subscriber{conn: conn, logger: logger}
}

// Handle подписывает handler на subject ("call.>", "expert.status_changed" и т.п.)
func (s *Subscriber) Handle(ctx context.Context, subject string, handler Handler) error {
	sub, err := s.conn.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := Decode(msg.Data)
		if err != nil {
			s.logger.Warn("Skipping malformed event",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			return
		}
		handler(ctx, ev)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.logger.Info("Subscribed to events", zap.String("subject", subject))
	return nil
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("Failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	s.subs = nil
}
