package runner

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/metric"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// Standard runs its root process in a background goroutine against the OS
// monotonic clock, sleeping between ticks. This is the production runner.
type Standard struct {
	name        string
	root        process.Process
	clk         clock.Clock
	sleeper     Sleeper
	stopTimeout time.Duration
	logger      *slog.Logger
	metrics     *metric.Metrics

	mu      sync.Mutex
	state   State
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastErr error
}

// NewStandard creates a standard runner for the given root process.
func NewStandard(name string, root process.Process, opts ...Option) *Standard {
	o := applyOptions(opts...)
	r := &Standard{
		name:        name,
		root:        root,
		clk:         o.clk,
		sleeper:     o.sleeper,
		stopTimeout: o.stopTimeout,
		logger:      o.logger.With("runner", name),
		state:       StateCreated,
	}
	if o.metrics != nil {
		r.metrics = o.metrics.CoreMetrics()
	}
	return r
}

// Name returns the runner name
func (r *Standard) Name() string { return r.name }

// State returns the current lifecycle state
func (r *Standard) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastErr returns the error that halted the loop, if any.
func (r *Standard) LastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Start begins autonomous execution in a background goroutine.
func (r *Standard) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateCreated {
		return errors.WrapConfig(errors.ErrAlreadyStarted, "Runner", "Start",
			"lifecycle state "+r.state.String())
	}
	r.setStateLocked(StateRunning)
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.logger.Info("starting runner", "root", r.root.Name())
	go r.run()
	return nil
}

// Stop requests cooperative termination and joins the loop. An in-flight
// execute is allowed to finish; the inter-tick wait is interrupted
// promptly. Stop is idempotent.
func (r *Standard) Stop() error {
	r.mu.Lock()
	switch r.state {
	case StateCreated:
		r.setStateLocked(StateStopped)
		r.mu.Unlock()
		return nil
	case StateStopped:
		r.mu.Unlock()
		return nil
	case StateRunning:
		r.setStateLocked(StateStopping)
		close(r.stopCh)
	case StateStopping:
		// another caller is already stopping; fall through to join
	}
	done := r.doneCh
	r.mu.Unlock()

	r.logger.Info("stopping runner")
	select {
	case <-done:
		return nil
	case <-time.After(r.stopTimeout):
		r.logger.Warn("runner did not stop within timeout")
		return errors.WrapOperational(errors.ErrStopTimeout, "Runner", "Stop", "join")
	}
}

func (r *Standard) run() {
	defer func() {
		r.mu.Lock()
		r.setStateLocked(StateStopped)
		r.mu.Unlock()
		close(r.doneCh)
		r.logger.Info("runner loop ended")
	}()

	ctx := clock.WithClock(context.Background(), r.clk)
	r.root.Initialize(r.clk.Now())

	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		now := r.clk.Now()
		next := r.root.NextRunAt(now)
		if next > now {
			if !r.sleeper.Sleep(time.Duration(next-now), r.stopCh) {
				return
			}
		}

		tickStart := r.clk.Now()
		_, err := r.root.Execute(ctx, types.StateMap{})
		if r.metrics != nil {
			r.metrics.RunnerTicks.WithLabelValues(r.name).Inc()
			r.metrics.TickDuration.WithLabelValues(r.name).
				Observe(float64(r.clk.Now()-tickStart) / float64(time.Second))
		}
		if err != nil {
			if errors.IsPermission(err) {
				r.logger.Error("permission violation, halting runner",
					"root", r.root.Name(), "error", err)
				r.mu.Lock()
				r.lastErr = err
				r.mu.Unlock()
				return
			}
			// Final line of defence: the process-level policy should
			// have absorbed this already.
			r.logger.Error("error escaped root process, continuing", "error", err)
		}
	}
}

func (r *Standard) setStateLocked(s State) {
	r.state = s
	if r.metrics != nil {
		r.metrics.RunnerState.WithLabelValues(r.name).Set(float64(s))
	}
}
