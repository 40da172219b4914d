package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	PendingSweepInterval = time.Minute
	ExpirySweepInterval  = 30 * time.Second
	CompletionInterval   = 15 * time.Minute
)

// Job периодическая задача; возвращает число обработанных записей
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	jobs     []Job
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(logger *zap.Logger, jobs ...Job) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start запускает каждую задачу в своей горутине
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Int("jobs", len(s.jobs)))

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}
}

// Stop останавливает задачи и ждёт завершения текущих запусков
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	// первый запуск сразу при старте
	s.runOnce(ctx, job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx, job)
		case <-s.stopChan:
			s.logger.Info("Job stopped", zap.String("job", job.Name))
			return
		case <-ctx.Done():
			s.logger.Info("Job cancelled", zap.String("job", job.Name))
			return
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	n, err := job.Run(ctx)
	if err != nil {
		s.logger.Error("Background job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Background job done", zap.String("job", job.Name), zap.Int("processed", n))
	}
}
