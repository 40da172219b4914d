package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScheduler_RunsJobsUntilStopped(t *testing.T) {
	var fast, failing atomic.Int32

	s := NewScheduler(zap.NewNop(),
		Job{Name: "fast", Interval: 5 * time.Millisecond, Run: func(context.Context) (int, error) {
			fast.Add(1)
			return 1, nil
		}},
		Job{Name: "failing", Interval: 5 * time.Millisecond, Run: func(context.Context) (int, error) {
			failing.Add(1)
			return 0, errors.New("db down")
		}},
	)

	s.Start(context.Background())
	require.Eventually(t, func() bool { return fast.Load() >= 3 && failing.Load() >= 3 }, time.Second, 5*time.Millisecond)

	s.Stop()
	s.Stop()

	after := fast.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, after, fast.Load())
}

func TestScheduler_FirstRunIsImmediate(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := NewScheduler(zap.NewNop(), Job{Name: "hourly", Interval: time.Hour, Run: func(context.Context) (int, error) {
		ran <- struct{}{}
		return 0, nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("job did not run on start")
	}

	cancel()
	s.Stop()
}
