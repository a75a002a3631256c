package runner

import (
	"context"
	"log/slog"
	"sync"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/metric"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// simClock is the simulated time source a Fast runner injects into its
// process tree.
type simClock struct {
	now int64
}

func (c *simClock) Now() int64 { return c.now }

// maxStalledTicks bounds how many times the loop may execute without
// simulated time advancing before the schedule is considered quiescent.
// Only a zero-interval root can hit this.
const maxStalledTicks = 1000

// Fast drives its root process against an internal simulated clock that
// starts at zero. The inter-tick wait advances the clock instantaneously,
// so hour-long schedules complete in milliseconds while every process sees
// consistent simulated time through the context clock.
//
// Fast is synchronous: RunFor executes on the calling goroutine. Start is
// not supported; a simulated-time loop has no meaningful background mode.
type Fast struct {
	name    string
	root    process.Process
	logger  *slog.Logger
	metrics *metric.Metrics

	mu          sync.Mutex
	state       State
	stop        bool
	initialized bool
	sim         *simClock
	lastErr     error
}

// NewFast creates a fast runner for the given root process.
func NewFast(name string, root process.Process, opts ...Option) *Fast {
	o := applyOptions(opts...)
	r := &Fast{
		name:   name,
		root:   root,
		logger: o.logger.With("runner", name),
		state:  StateCreated,
		sim:    &simClock{},
	}
	if o.metrics != nil {
		r.metrics = o.metrics.CoreMetrics()
	}
	return r
}

// Name returns the runner name
func (r *Fast) Name() string { return r.name }

// State returns the current lifecycle state
func (r *Fast) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Now returns the current simulated time.
func (r *Fast) Now() int64 {
	return r.sim.now
}

// LastErr returns the error that halted the loop, if any.
func (r *Fast) LastErr() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Start is not supported: use RunFor.
func (r *Fast) Start() error {
	return errors.WrapConfig(errors.ErrInvalidConfig, "FastRunner", "Start", "use RunFor for simulated execution")
}

// Stop requests that an in-progress RunFor return early. Stop on an idle
// fast runner is a no-op.
func (r *Fast) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stop = true
	return nil
}

// RunFor advances simulated time until it reaches the horizon
// (current simulated time + duration nanoseconds) or the schedule goes
// quiescent. Repeated calls continue from where the previous call left
// off; the root is initialized once, at simulated time zero.
func (r *Fast) RunFor(duration int64) error {
	r.mu.Lock()
	if r.state == StateRunning {
		r.mu.Unlock()
		return errors.WrapConfig(errors.ErrAlreadyStarted, "FastRunner", "RunFor", "reentrant run")
	}
	r.state = StateRunning
	r.stop = false
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.state = StateStopped
		r.mu.Unlock()
	}()

	ctx := clock.WithClock(context.Background(), r.sim)
	if !r.initialized {
		r.root.Initialize(r.sim.now)
		r.initialized = true
	}

	end := r.sim.now + duration
	stalled := 0

	for {
		r.mu.Lock()
		stopped := r.stop
		r.mu.Unlock()
		if stopped {
			return nil
		}

		next := r.root.NextRunAt(r.sim.now)
		if next > end {
			r.sim.now = end
			return nil
		}
		if next > r.sim.now {
			r.sim.now = next
			stalled = 0
		} else {
			stalled++
			if stalled > maxStalledTicks {
				r.logger.Warn("schedule quiescent, stopping early",
					"simulated_time", r.sim.now)
				return nil
			}
		}

		_, err := r.root.Execute(ctx, types.StateMap{})
		if r.metrics != nil {
			r.metrics.RunnerTicks.WithLabelValues(r.name).Inc()
		}
		if err != nil {
			if errors.IsPermission(err) {
				r.logger.Error("permission violation, halting runner",
					"root", r.root.Name(), "error", err)
				r.mu.Lock()
				r.lastErr = err
				r.mu.Unlock()
				return err
			}
			r.logger.Error("error escaped root process, continuing", "error", err)
		}
	}
}
