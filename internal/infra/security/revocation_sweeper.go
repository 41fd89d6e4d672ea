package security

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/localsolutions/board-api/internal/core/port"
)

const defaultSweepInterval = time.Hour

// SweeperOptions configures the background revocation sweep.
type SweeperOptions struct {
	Interval time.Duration
	Logger   *zap.Logger
	// OnSweep is invoked after every successful sweep with the number of removed entries.
	OnSweep func(removed int)
	Now     func() time.Time
}

// RevocationSweeper periodically removes revocations whose tokens have expired naturally.
type RevocationSweeper struct {
	store    port.RevocationStore
	interval time.Duration
	logger   *zap.Logger
	onSweep  func(int)
	now      func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewRevocationSweeper builds a sweeper for store; call Start to begin ticking.
func NewRevocationSweeper(store port.RevocationStore, opts SweeperOptions) *RevocationSweeper {
	interval := opts.Interval
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &RevocationSweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		onSweep:  opts.OnSweep,
		now:      now,
	}
}

// Interval reports the configured tick interval.
func (s *RevocationSweeper) Interval() time.Duration {
	return s.interval
}

// Start launches the sweep loop. Calling Start twice is a no-op.
func (s *RevocationSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.started = true

	go s.loop(loopCtx, s.done)
	s.logger.Info("revocation sweeper started", zap.Duration("interval", s.interval))
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (s *RevocationSweeper) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.started = false
	s.mu.Unlock()

	cancel()
	<-done
	s.logger.Info("revocation sweeper stopped")
}

func (s *RevocationSweeper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.logger.Error("revocation sweep failed", zap.Error(err))
			}
		}
	}
}

// SweepOnce runs a single sweep. A panic inside the store is recovered and reported as an error.
func (s *RevocationSweeper) SweepOnce(ctx context.Context) (removed int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("revocation sweep panicked: %v", r)
		}
	}()

	removed, err = s.store.Sweep(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep revocations: %w", err)
	}
	if s.onSweep != nil {
		s.onSweep(removed)
	}
	if removed > 0 {
		s.logger.Debug("revocation sweep completed", zap.Int("removed", removed))
	}
	return removed, nil
}
