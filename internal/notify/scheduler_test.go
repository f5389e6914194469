package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/wg/internal/clock"
	"github.com/dukerupert/wg/internal/logging"
)

type countingRunner struct{ runs atomic.Int32 }

func (r *countingRunner) Run(context.Context) error {
	r.runs.Add(1)
	return nil
}

type countingCleaner struct {
	calls  atomic.Int32
	before atomic.Value
}

func (c *countingCleaner) CleanupSent(before time.Time) error {
	c.calls.Add(1)
	c.before.Store(before)
	return nil
}

func TestSchedulerRunsImmediatelyAndOnTicks(t *testing.T) {
	runner := &countingRunner{}
	cleaner := &countingCleaner{}
	clk := clock.NewFixed(time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC))
	s := NewScheduler(runner, cleaner, 10*time.Millisecond, clk, logging.Discard())

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runner.runs.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if runner.runs.Load() < 3 {
		t.Errorf("runs = %d, want at least 3", runner.runs.Load())
	}
	if cleaner.calls.Load() == 0 {
		t.Fatal("expected sent notifications cleanup")
	}
	want := time.Date(2024, time.February, 14, 12, 0, 0, 0, time.UTC)
	if got := cleaner.before.Load().(time.Time); !got.Equal(want) {
		t.Errorf("cleanup cutoff = %v, want %v", got, want)
	}

	after := runner.runs.Load()
	time.Sleep(30 * time.Millisecond)
	if runner.runs.Load() != after {
		t.Error("job ran after Stop")
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(&countingRunner{}, nil, time.Second, clock.System, logging.Discard())
	s.Stop()
}
