// Package schedule decides when automatic background fetches may run.
//
// A Scheduler is a single owning actor: inhibitor bits and the selected
// source are mutated only on its run goroutine, so external signal sources
// (settings, window visibility, power, network, session lock) never race
// each other. While no inhibitor is active a timer goroutine wakes
// periodically and emits at most one in-flight update request at a time.
package schedule

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/swsnr/picture-of-the-day-sub000/internal/source"
)

// Config tunes the scheduler timings. Zero values select the defaults.
type Config struct {
	// Grace is the initial delay before the first wake of a fresh timer.
	Grace time.Duration
	// Cadence is the fixed wake interval.
	Cadence time.Duration
	// Threshold is the minimum age of the last successful update before a
	// wake emits a request.
	Threshold time.Duration
}

const (
	defaultGrace     = time.Minute
	defaultCadence   = 30 * time.Minute
	defaultThreshold = 12 * time.Hour
)

// UpdateRequest asks the consumer to fetch now. It is answered at most once;
// a request dropped unanswered is treated identically to cancellation.
type UpdateRequest struct {
	src     source.Source
	ctx     context.Context
	respond chan error
	once    sync.Once
}

// Source is the source the update should fetch from.
func (r *UpdateRequest) Source() source.Source { return r.src }

// Context is cancelled when the scheduler withdraws the request, e.g.
// because an inhibitor appeared or the source changed.
func (r *UpdateRequest) Context() context.Context { return r.ctx }

// Respond acknowledges the request. A nil error advances the scheduler's
// watermark; anything else leaves it unchanged so the next wake retries.
// Calls after the first are no-ops.
func (r *UpdateRequest) Respond(err error) {
	r.once.Do(func() { r.respond <- err })
}

// Scheduler emits update requests on a fixed cadence, gated by inhibitors.
type Scheduler struct {
	logger    *log.Logger
	grace     time.Duration
	cadence   time.Duration
	threshold time.Duration

	requests chan *UpdateRequest
	cmds     chan func()
	done     chan struct{}
	stopOnce sync.Once

	// State below is owned by the run goroutine.
	inhibitors InhibitorSet
	src        source.Source
	// watermark is the time of the last successful update. The zero value
	// lies far in the past, so the very first wake always fires.
	watermark time.Time
	// cancel is non-nil exactly while a timer is scheduled.
	cancel context.CancelFunc
}

func New(logger *log.Logger, src source.Source, cfg Config) *Scheduler {
	if cfg.Grace <= 0 {
		cfg.Grace = defaultGrace
	}
	if cfg.Cadence <= 0 {
		cfg.Cadence = defaultCadence
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = defaultThreshold
	}
	return &Scheduler{
		logger:    logger,
		src:       src,
		grace:     cfg.Grace,
		cadence:   cfg.Cadence,
		threshold: cfg.Threshold,
		// Capacity 1: the consumer is required to drain the channel; the
		// response await below keeps a second request from ever queueing.
		requests: make(chan *UpdateRequest, 1),
		cmds:     make(chan func()),
		done:     make(chan struct{}),
	}
}

// Requests is the channel the consumer drains. At most one request is
// outstanding per scheduler.
func (s *Scheduler) Requests() <-chan *UpdateRequest { return s.requests }

// Start launches the actor. The timer starts once no inhibitor is active.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop cancels any outstanding timer and shuts the actor down.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

// SetInhibitor marks one condition active. Idempotent per bit.
func (s *Scheduler) SetInhibitor(i Inhibitor) {
	s.exec(func() {
		next := s.inhibitors.With(i)
		if next == s.inhibitors {
			return
		}
		s.inhibitors = next
		s.logger.Printf("Inhibitor %s set, active: %s", i, s.inhibitors)
		s.reconcile()
	})
}

// ClearInhibitor marks one condition inactive. Idempotent per bit.
func (s *Scheduler) ClearInhibitor(i Inhibitor) {
	s.exec(func() {
		next := s.inhibitors.Without(i)
		if next == s.inhibitors {
			return
		}
		s.inhibitors = next
		s.logger.Printf("Inhibitor %s cleared, active: %s", i, s.inhibitors)
		s.reconcile()
	})
}

// SetSource switches the source for future updates. A scheduled timer is
// cancelled and restarted so a stale fetch never runs under the old source.
func (s *Scheduler) SetSource(src source.Source) {
	s.exec(func() {
		if src == s.src {
			return
		}
		s.src = src
		if s.cancel != nil {
			s.cancel()
			s.cancel = nil
		}
		s.reconcile()
	})
}

func (s *Scheduler) run() {
	s.reconcile()
	for {
		select {
		case fn := <-s.cmds:
			fn()
		case <-s.done:
			if s.cancel != nil {
				s.cancel()
				s.cancel = nil
			}
			return
		}
	}
}

// reconcile moves between the unscheduled and scheduled states. Runs on the
// actor goroutine only.
func (s *Scheduler) reconcile() {
	switch {
	case s.inhibitors.Empty() && s.cancel == nil:
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.logger.Printf("Scheduling automatic updates for %s", s.src)
		go s.timerLoop(ctx, s.src)
	case !s.inhibitors.Empty() && s.cancel != nil:
		s.logger.Printf("Unscheduling automatic updates: %s", s.inhibitors)
		s.cancel()
		s.cancel = nil
	}
}

// exec runs fn on the actor goroutine.
func (s *Scheduler) exec(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.done:
	}
}

// execCtx is exec with an additional cancellation point for timer bodies.
func (s *Scheduler) execCtx(ctx context.Context, fn func()) bool {
	select {
	case s.cmds <- fn:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

// timerLoop runs once per scheduled lifetime, cancellable at every wait.
func (s *Scheduler) timerLoop(ctx context.Context, src source.Source) {
	select {
	case <-time.After(s.grace):
	case <-ctx.Done():
		return
	}
	ticker := time.NewTicker(s.cadence)
	defer ticker.Stop()
	for {
		s.wake(ctx, src)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// wake emits one request if the watermark is old enough, then waits for the
// acknowledgment before returning. Waiting here, not a lock, is what keeps
// a second automatic request from starting while one is outstanding.
func (s *Scheduler) wake(ctx context.Context, src source.Source) {
	watermark, ok := s.watermarkSnapshot(ctx)
	if !ok {
		return
	}
	if elapsed := time.Since(watermark); elapsed < s.threshold {
		s.logger.Printf("Last update %s ago, not updating", elapsed.Round(time.Second))
		return
	}

	req := &UpdateRequest{src: src, ctx: ctx, respond: make(chan error, 1)}
	select {
	case s.requests <- req:
	case <-ctx.Done():
		return
	}

	select {
	case err := <-req.respond:
		if err != nil {
			s.logger.Printf("Scheduled update for %s failed: %v", src, err)
			return
		}
		now := time.Now()
		s.execCtx(ctx, func() { s.watermark = now })
	case <-ctx.Done():
		// Cancelled or dropped unanswered; watermark stays so the next
		// scheduled lifetime retries.
	}
}

func (s *Scheduler) watermarkSnapshot(ctx context.Context) (time.Time, bool) {
	reply := make(chan time.Time, 1)
	if !s.execCtx(ctx, func() { reply <- s.watermark }) {
		return time.Time{}, false
	}
	select {
	case t := <-reply:
		return t, true
	case <-ctx.Done():
		return time.Time{}, false
	}
}
