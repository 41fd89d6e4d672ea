package security

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type panickingStore struct {
	MemoryRevocationStore
}

func (p *panickingStore) Sweep(context.Context, time.Time) (int, error) {
	panic("boom")
}

type failingStore struct {
	MemoryRevocationStore
}

func (f *failingStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, errors.New("backend unavailable")
}

func TestRevocationSweeperSweepOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryRevocationStore()
	_ = store.Revoke(ctx, "old", now.Add(-time.Minute))
	_ = store.Revoke(ctx, "fresh", now.Add(time.Minute))

	var reported int
	sweeper := NewRevocationSweeper(store, SweeperOptions{
		Logger:  zaptest.NewLogger(t),
		OnSweep: func(removed int) { reported = removed },
		Now:     func() time.Time { return now },
	})

	removed, err := sweeper.SweepOnce(ctx)
	if err != nil {
		t.Fatalf("SweepOnce returned error: %v", err)
	}
	if removed != 1 || reported != 1 {
		t.Fatalf("expected 1 removed entry, got removed=%d reported=%d", removed, reported)
	}
	if sweeper.Interval() != time.Hour {
		t.Fatalf("expected default interval, got %s", sweeper.Interval())
	}
}

func TestRevocationSweeperRecoversPanic(t *testing.T) {
	sweeper := NewRevocationSweeper(&panickingStore{}, SweeperOptions{Logger: zaptest.NewLogger(t)})

	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected panic to be converted to an error")
	}
}

func TestRevocationSweeperReportsStoreError(t *testing.T) {
	called := false
	sweeper := NewRevocationSweeper(&failingStore{}, SweeperOptions{
		Logger:  zaptest.NewLogger(t),
		OnSweep: func(int) { called = true },
	})

	if _, err := sweeper.SweepOnce(context.Background()); err == nil {
		t.Fatal("expected store error to propagate")
	}
	if called {
		t.Fatal("OnSweep must not run for failed sweeps")
	}
}

func TestRevocationSweeperLoopKeepsRunningAfterFailures(t *testing.T) {
	var ticks atomic.Int32
	sweeper := NewRevocationSweeper(&failingStore{}, SweeperOptions{
		Interval: 5 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
		Now: func() time.Time {
			ticks.Add(1)
			return time.Now()
		},
	})

	sweeper.Start(context.Background())
	sweeper.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	sweeper.Stop()
	sweeper.Stop()

	if ticks.Load() < 3 {
		t.Fatalf("expected repeated sweeps after failures, got %d", ticks.Load())
	}
}
