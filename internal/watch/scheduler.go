package watch

import (
	"context"
	"sync"
	"time"

	"noveldigest/internal/logger"
)

// Scheduler layers three independent timers over one Runner: the chapter
// check, the daily digest, and retention cleanup. Overlap between the
// first two is resolved by the Runner's guard, not here.
type Scheduler struct {
	runner  *Runner
	cleaner *Cleaner
	log     logger.Logger

	checkInterval   time.Duration
	digestInterval  time.Duration
	cleanupInterval time.Duration
	retentionDays   int

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(
	runner *Runner,
	cleaner *Cleaner,
	log logger.Logger,
	checkInterval, digestInterval, cleanupInterval time.Duration,
	retentionDays int,
) *Scheduler {
	return &Scheduler{
		runner:          runner,
		cleaner:         cleaner,
		log:             log,
		checkInterval:   checkInterval,
		digestInterval:  digestInterval,
		cleanupInterval: cleanupInterval,
		retentionDays:   retentionDays,
		stopCh:          make(chan struct{}),
	}
}

// Start launches the timer goroutines. They stop when ctx is done or Stop
// is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("scheduler started",
		logger.Duration("checkInterval", s.checkInterval),
		logger.Duration("digestInterval", s.digestInterval),
		logger.Duration("cleanupInterval", s.cleanupInterval))

	s.every(ctx, s.checkInterval, func() {
		s.runner.RunAll(ctx)
	})
	s.every(ctx, s.digestInterval, func() {
		s.runner.Digest(ctx)
	})
	s.every(ctx, s.cleanupInterval, func() {
		if _, err := s.cleaner.Cleanup(s.retentionDays); err != nil {
			s.log.Error("scheduled cleanup failed", logger.Error(err))
		}
	})
}

// Stop halts all timers and waits for their goroutines to exit. A pass
// already in flight runs to completion; there is no mid-run cancellation.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Scheduler) every(ctx context.Context, interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				fn()
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}
