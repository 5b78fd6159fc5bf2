package sync

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_RunsAndStops(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())

	var runs atomic.Int64
	s.Every(10*time.Millisecond, "test", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	time.Sleep(60 * time.Millisecond)
	s.Stop()
	after := runs.Load()
	assert.Greater(t, after, int64(0))

	// No more runs after Stop.
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestScheduler_FirstRunWaitsOneInterval(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())

	var runs atomic.Int64
	s.Every(200*time.Millisecond, "slow", func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	time.Sleep(50 * time.Millisecond)
	s.Stop()
	assert.Zero(t, runs.Load())
}

func TestScheduler_ErrorDoesNotStopJob(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())

	var runs atomic.Int64
	s.Every(10*time.Millisecond, "flaky", func(ctx context.Context) error {
		runs.Add(1)
		return errors.New("transient")
	})

	time.Sleep(60 * time.Millisecond)
	s.Stop()
	assert.Greater(t, runs.Load(), int64(1))
}

func TestScheduler_PanicDoesNotStopJob(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())

	var runs atomic.Int64
	s.Every(10*time.Millisecond, "broken", func(ctx context.Context) error {
		runs.Add(1)
		panic("nil map write")
	})

	time.Sleep(60 * time.Millisecond)
	s.Stop()
	assert.Greater(t, runs.Load(), int64(1), "runs must continue after a panic")
}

func TestScheduler_StopWaitsForInFlightRun(t *testing.T) {
	s := NewScheduler()
	s.Start(context.Background())

	var finished atomic.Bool
	s.Every(10*time.Millisecond, "long", func(ctx context.Context) error {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
		return nil
	})

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.True(t, finished.Load(), "Stop must wait for the running job")
}

func TestScheduler_EveryBeforeStartPanics(t *testing.T) {
	s := NewScheduler()
	assert.Panics(t, func() {
		s.Every(time.Second, "x", func(ctx context.Context) error { return nil })
	})
}
