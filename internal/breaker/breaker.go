// Package breaker останавливает автоматические обновления, когда бэкенд падает:
// после Threshold ошибок за скользящее окно Window автоматические вызовы
// подавляются, пока не пройдёт успешный принудительный вызов.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	DefaultThreshold = 3
	DefaultWindow    = 30 * time.Second
)

var ErrOpen = errors.New("circuit breaker is open: automatic refresh suppressed")

type Breaker struct {
	mu        sync.Mutex
	threshold int
	window    time.Duration
	failures  []time.Time
	open      bool
	now       func() time.Time
}

type Option func(*Breaker)

// WithClock подменяет часы (для тестов)
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

func New(threshold int, window time.Duration, opts ...Option) *Breaker {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if window <= 0 {
		window = DefaultWindow
	}
	b := &Breaker{
		threshold: threshold,
		window:    window,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Open подавляются ли автоматические вызовы
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Do выполняет автоматический вызов. При открытом breaker возвращает ErrOpen не вызывая fn.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if b.Open() {
		return ErrOpen
	}
	return b.call(ctx, fn)
}

// Force выполняет вызов вручную, даже если breaker открыт. Успех закрывает breaker.
func (b *Breaker) Force(ctx context.Context, fn func(context.Context) error) error {
	return b.call(ctx, fn)
}

func (b *Breaker) call(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = b.failures[:0]
		b.open = false
		return nil
	}

	now := b.now()
	b.failures = append(b.pruned(now), now)
	if len(b.failures) >= b.threshold {
		b.open = true
	}
	return err
}

// pruned ошибки, попадающие в окно. Вызывать под mu.
func (b *Breaker) pruned(now time.Time) []time.Time {
	cutoff := now.Add(-b.window)
	kept := b.failures[:0]
	for _, t := range b.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
