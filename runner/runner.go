// Package runner provides the autonomous execution loop that drives a root
// process: Standard against the OS monotonic clock, Fast against a
// simulated clock for deterministic testing of hours-long thermal behavior
// in milliseconds of real time.
package runner

import (
	"log/slog"
	"time"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/metric"
)

// State represents the current lifecycle state of a runner
type State int

const (
	// StateCreated indicates the runner was created but not started
	StateCreated State = iota
	// StateRunning indicates the loop is executing
	StateRunning
	// StateStopping indicates a stop was requested and the loop is
	// winding down
	StateStopping
	// StateStopped indicates the loop has exited
	StateStopped
)

// String returns a string representation of the runner state
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Runner drives one root process until stopped.
type Runner interface {
	// Name returns the runner name
	Name() string
	// State returns the current lifecycle state
	State() State
	// Start begins autonomous execution. Valid only in the created
	// state.
	Start() error
	// Stop requests cooperative termination and joins the loop within a
	// bounded wait. Stop on a stopped runner is a no-op.
	Stop() error
}

// Sleeper abstracts the inter-tick wait so tests can inject instantaneous
// waits paired with a fake clock.
type Sleeper interface {
	// Sleep waits for d or until stop closes. It reports false when the
	// wait was interrupted by stop.
	Sleep(d time.Duration, stop <-chan struct{}) bool
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration, stop <-chan struct{}) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-stop:
		return false
	}
}

// DefaultStopTimeout bounds how long Stop waits for the loop to exit.
const DefaultStopTimeout = 5 * time.Second

// Option configures a runner.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *metric.Registry
	clk         clock.Clock
	sleeper     Sleeper
	stopTimeout time.Duration
}

// WithLogger sets the parent logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics enables runner metrics on the core registry.
func WithMetrics(r *metric.Registry) Option {
	return func(o *options) { o.metrics = r }
}

// WithClock overrides the time source of a standard runner.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clk = c }
}

// WithSleeper overrides the inter-tick wait of a standard runner.
func WithSleeper(s Sleeper) Option {
	return func(o *options) { o.sleeper = s }
}

// WithStopTimeout bounds the join performed by Stop.
func WithStopTimeout(d time.Duration) Option {
	return func(o *options) { o.stopTimeout = d }
}

func applyOptions(opts ...Option) *options {
	o := &options{
		clk:         clock.System(),
		sleeper:     realSleeper{},
		stopTimeout: DefaultStopTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}
