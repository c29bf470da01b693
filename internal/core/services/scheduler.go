package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/sheetsync/internal/core/ports/driving"
	"github.com/custodia-labs/sheetsync/internal/logger"
)

// DefaultSyncInterval is the daemon's re-sync interval when none is
// configured.
const DefaultSyncInterval = 15 * time.Minute

// TaskState is a snapshot of the scheduler's single recurring task.
type TaskState struct {
	// Interval defines how often a sync run is triggered.
	Interval time.Duration

	// LastRun is when a run last started.
	LastRun time.Time

	// NextRun is when the next run is due.
	NextRun time.Time

	// LastError contains the last run's error message, if any.
	LastError string

	// LastSuccess is when a run last completed successfully.
	LastSuccess time.Time
}

// Scheduler triggers sync runs on a fixed interval. Runs never
// overlap: a run still in progress when the next tick fires makes the
// tick a no-op (the runner reports ErrSyncInProgress, which is logged
// and dropped).
type Scheduler struct {
	runner   driving.SyncRunner
	interval time.Duration

	mu      sync.Mutex
	task    TaskState
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler that re-runs the given runner.
// A non-positive interval falls back to DefaultSyncInterval.
func NewScheduler(runner driving.SyncRunner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		task:     TaskState{Interval: interval},
	}
}

// Start begins the scheduler loop. It runs once immediately, then on
// every interval tick. This method blocks until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop gracefully shuts down the scheduler and waits for an in-flight
// run to finish.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Task returns a snapshot of the recurring task's state.
func (s *Scheduler) Task() TaskState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task
}

// runOnce executes one sync run and records the outcome.
func (s *Scheduler) runOnce(ctx context.Context) {
	s.wg.Add(1)
	defer s.wg.Done()

	started := time.Now()
	s.mu.Lock()
	s.task.LastRun = started
	s.mu.Unlock()

	report, err := s.runner.Run(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.task.NextRun = time.Now().Add(s.interval)
	if err != nil {
		s.task.LastError = err.Error()
		logger.Warn("Scheduled sync failed: %v", err)
		return
	}
	s.task.LastError = ""
	s.task.LastSuccess = time.Now()
	logger.Info("Scheduled sync complete: %d upserts, %d deletes", report.Upserts, report.Deletes)
}
