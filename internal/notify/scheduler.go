package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/wg/internal/clock"
)

// sentRetention is how long dedup records are kept.
const sentRetention = 30 * 24 * time.Hour

type Runner interface {
	Run(ctx context.Context) error
}

type SentCleaner interface {
	CleanupSent(before time.Time) error
}

// Scheduler runs a job on a fixed interval until stopped.
type Scheduler struct {
	mu       sync.RWMutex
	job      Runner
	cleaner  SentCleaner
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewScheduler(job Runner, cleaner SentCleaner, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		job:      job,
		cleaner:  cleaner,
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// Start runs the job once right away and then on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if err := s.job.Run(ctx); err != nil && ctx.Err() == nil {
		s.logger.Error("scheduled job failed", "error", err)
	}
	if s.cleaner != nil {
		if err := s.cleaner.CleanupSent(s.clock.Now().Add(-sentRetention)); err != nil {
			s.logger.Error("cleanup sent notifications", "error", err)
		}
	}
}
