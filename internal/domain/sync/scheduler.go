package sync

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"stocksync/pkg/logger"
)

// Job is one unit of scheduled work.
type Job func(ctx context.Context) error

// Scheduler runs named jobs on fixed intervals. A job that is still
// running when its interval elapses is not started again; runs never
// overlap.
type Scheduler struct {
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
	ctx    context.Context
}

// NewScheduler creates an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start makes the scheduler ready to accept jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx, s.cancel = context.WithCancel(ctx)
}

// Every schedules job to run each interval until the scheduler stops.
// The first run happens after one interval, not immediately.
func (s *Scheduler) Every(interval time.Duration, name string, job Job) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()
	if ctx == nil {
		panic("scheduler not started")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		logger.Info(ctx, "job scheduled", "job", name, "interval", interval)
		for {
			select {
			case <-ctx.Done():
				logger.Info(ctx, "job stopped", "job", name)
				return
			case <-ticker.C:
				runJob(ctx, name, job)
			}
		}
	}()
}

// runJob executes one run of a job. A panic inside the job is logged
// with its stack and does not kill the scheduler goroutine.
func runJob(ctx context.Context, name string, job Job) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "job panicked",
				"job", name,
				"duration_ms", time.Since(start).Milliseconds(),
				"error", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := job(ctx); err != nil {
		logger.Error(ctx, "job run failed",
			"job", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}
	logger.Debug(ctx, "job run finished",
		"job", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Stop cancels all jobs and waits for in-flight runs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}
