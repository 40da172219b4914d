// Package unread счётчики непрочитанных сообщений экспертов.
//
// Счётчики предсказываются локально (Increment/Decrement сразу при событии) и
// сверяются с базой опросом. Модель eventually consistent: расхождение с базой
// живёт не дольше MaxStaleness, если опрос не подавлен breaker'ом.
package unread

import (
	"context"
	"sync"
	"time"

	"github.com/Freeeeeet/wellness_api/internal/breaker"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	PollInterval = 10 * time.Second
	MaxStaleness = PollInterval
)

// Source авторитетные счётчики из базы: только эксперты с unread > 0
type Source interface {
	UnreadCounts(ctx context.Context) (map[uuid.UUID]int, error)
}

type Tracker struct {
	mu       sync.RWMutex
	counts   map[uuid.UUID]int
	syncedAt time.Time

	source  Source
	breaker *breaker.Breaker
	logger  *zap.Logger
	now     func() time.Time
}

func NewTracker(source Source, br *breaker.Breaker, logger *zap.Logger) *Tracker {
	return &Tracker{
		counts:  make(map[uuid.UUID]int),
		source:  source,
		breaker: br,
		logger:  logger,
		now:     time.Now,
	}
}

// Increment оптимистично увеличивает счётчик при локально замеченном сообщении
func (t *Tracker) Increment(expertID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[expertID]++
	return t.counts[expertID]
}

// Decrement оптимистично уменьшает счётчик после прочтения, не ниже нуля
func (t *Tracker) Decrement(expertID uuid.UUID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[expertID] > 0 {
		t.counts[expertID]--
	}
	return t.counts[expertID]
}

// Count текущее предсказанное значение и возраст последней сверки
func (t *Tracker) Count(expertID uuid.UUID) (int, time.Duration) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	age := time.Duration(0)
	if !t.syncedAt.IsZero() {
		age = t.now().Sub(t.syncedAt)
	}
	return t.counts[expertID], age
}

// Reconcile автоматическая сверка; подавляется открытым breaker'ом
func (t *Tracker) Reconcile(ctx context.Context) error {
	return t.breaker.Do(ctx, t.reconcile)
}

// ForceReconcile ручная сверка, выполняется даже при открытом breaker'е
func (t *Tracker) ForceReconcile(ctx context.Context) error {
	return t.breaker.Force(ctx, t.reconcile)
}

func (t *Tracker) reconcile(ctx context.Context) error {
	fresh, err := t.source.UnreadCounts(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.counts = make(map[uuid.UUID]int, len(fresh))
	for id, n := range fresh {
		t.counts[id] = n
	}
	t.syncedAt = t.now()
	return nil
}

// Run опрашивает источник каждые interval до отмены ctx
func (t *Tracker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = PollInterval
	}

	if err := t.Reconcile(ctx); err != nil {
		t.logger.Warn("Initial unread reconcile failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := t.Reconcile(ctx); err != nil {
				t.logger.Warn("Unread reconcile failed",
					zap.Error(err),
					zap.Bool("breaker_open", t.breaker.Open()))
			}
		case <-ctx.Done():
			return
		}
	}
}
