package calltransport

import (
	"context"
	"sync"
	"time"
)

// FakeTransport запоминает выданные билеты, ничего не подписывает
type FakeTransport struct {
	mu     sync.Mutex
	Joins  []JoinRequest
	JoinFn func(JoinRequest) error
}

func (f *FakeTransport) Join(_ context.Context, req JoinRequest) (*JoinTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.JoinFn != nil {
		if err := f.JoinFn(req); err != nil {
			return nil, err
		}
	}
	f.Joins = append(f.Joins, req)

	return &JoinTicket{
		Channel:   req.Channel,
		UID:       req.ParticipantID.String(),
		Token:     "fake-token",
		Video:     req.Video,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *FakeTransport) JoinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Joins)
}
