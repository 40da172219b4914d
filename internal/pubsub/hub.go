// Package pubsub in-process рассылка событий подписчикам.
// Hub создаётся в main и передаётся тем, кому он нужен; глобального реестра нет.
package pubsub

import (
	"sync"
	"sync/atomic"
)

// Hub рассылает значения T всем подписчикам. Медленный подписчик теряет
// сообщения (буфер переполнен), но не блокирует публикацию.
type Hub[T any] struct {
	mu      sync.RWMutex
	subs    map[uint64]chan T
	nextID  uint64
	buffer  int
	dropped atomic.Uint64
	closed  bool
}

func NewHub[T any](buffer int) *Hub[T] {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub[T]{
		subs:   make(map[uint64]chan T),
		buffer: buffer,
	}
}

// Subscribe возвращает канал событий и функцию отписки.
// Отписка идемпотентна и закрывает канал.
func (h *Hub[T]) Subscribe() (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// SubscribeFunc вызывает fn для каждого события в отдельной горутине до отписки.
func (h *Hub[T]) SubscribeFunc(fn func(T)) func() {
	ch, unsubscribe := h.Subscribe()
	go func() {
		for v := range ch {
			fn(v)
		}
	}()
	return unsubscribe
}

// Publish неблокирующая рассылка. Возвращает число получателей.
func (h *Hub[T]) Publish(v T) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, ch := range h.subs {
		select {
		case ch <- v:
			delivered++
		default:
			h.dropped.Add(1)
		}
	}
	return delivered
}

// Dropped сколько сообщений не дошло до переполненных подписчиков
func (h *Hub[T]) Dropped() uint64 {
	return h.dropped.Load()
}

func (h *Hub[T]) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close закрывает все подписки; последующие Subscribe получают закрытый канал.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
