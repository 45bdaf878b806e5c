package event

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSweepInterval is how often OPEN events are checked for expiry.
const DefaultSweepInterval = 10 * time.Minute

// SweepResult summarizes one sweep.
type SweepResult struct {
	// Scanned is the number of OPEN events loaded.
	Scanned int
	// Expired is the number of events moved to EXPIRED.
	Expired int
	// Failed is the number of events whose expiry could not be saved.
	Failed int
	// Duration is the wall time of the sweep.
	Duration time.Duration
	// Err is set when the OPEN events could not be loaded at all.
	Err error
}

// Sweeper periodically moves OPEN events whose start time has passed to
// EXPIRED. Each event is transitioned and saved on its own, so one failure
// never stops the rest of the sweep.
type Sweeper struct {
	repo     Repository
	notifier Notifier
	observer Observer
	interval time.Duration
	now      func() time.Time

	mu sync.Mutex // serializes RunOnce

	loopMu sync.Mutex // guards cancel and done
	cancel context.CancelFunc
	done   chan struct{}
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweepClock overrides the time source (useful for tests).
func WithSweepClock(fn func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSweepObserver reports every sweep result to o.
func WithSweepObserver(o Observer) SweeperOption {
	return func(s *Sweeper) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewSweeper creates a Sweeper running every interval. A non-positive
// interval uses DefaultSweepInterval.
func NewSweeper(repo Repository, notifier Notifier, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s := &Sweeper{
		repo:     repo,
		notifier: notifier,
		observer: nopObserver{},
		interval: interval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs a sweep immediately and then every interval until Stop is
// called or ctx is cancelled. It returns without blocking. Calling Start on
// a running Sweeper does nothing.
func (s *Sweeper) Start(ctx context.Context) {
	s.loopMu.Lock()
	defer s.loopMu.Unlock()
	if s.cancel != nil {
		slog.Warn("event sweeper already running")
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
	slog.Info("event sweeper started", "interval", s.interval.String())
}

// Stop cancels the background loop and waits for an in-flight sweep to
// finish. The Sweeper may be started again afterwards.
func (s *Sweeper) Stop() {
	s.loopMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.loopMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	slog.Info("event sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Events already EXPIRED are never loaded,
// so running it repeatedly changes nothing after the first pass.
func (s *Sweeper) RunOnce(ctx context.Context) SweepResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	now := s.now()
	var result SweepResult

	events, err := s.repo.FindByStatus(ctx, StatusOpen)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		slog.Error("event sweep could not load open events", "error", err)
		s.observer.SweepCompleted(result)
		return result
	}
	result.Scanned = len(events)

	for _, e := range events {
		if ctx.Err() != nil {
			break
		}
		if !e.DateTime.Before(now) {
			continue
		}
		if err := s.expire(ctx, e); err != nil {
			result.Failed++
			slog.Error("failed to expire event", "event_id", e.ID, "error", err)
			continue
		}
		result.Expired++
		s.notifier.Send(e.Organizer.ID, NotifyExpired, eventPayload(e))
	}

	result.Duration = time.Since(start)
	s.observer.SweepCompleted(result)
	slog.Info("event sweep finished",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return result
}

// expire transitions and saves a single event. A panic while handling one
// event is turned into an error so the sweep can continue.
func (s *Sweeper) expire(ctx context.Context, e *Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while expiring event: %v", r)
		}
	}()

	if err := e.TransitionTo(StatusExpired); err != nil {
		return err
	}
	return s.repo.Save(ctx, e)
}
