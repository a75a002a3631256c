package process

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/metric"
	"github.com/johnwbyrd/aifand/types"
)

// Option configures a Base or Stateful process.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	metrics    *metric.Registry
	bufMaxAge  int64
	bufMaxLen  int
	hasBufAge  bool
	hasBufLen  bool
}

// WithLogger sets the parent logger. The process derives its own logger
// with a "process" attribute.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics enables execution metrics on the core registry.
func WithMetrics(r *metric.Registry) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithBufferMaxAge bounds a stateful process's history by age in
// nanoseconds. Ignored by stateless processes.
func WithBufferMaxAge(ns int64) Option {
	return func(o *options) {
		o.bufMaxAge = ns
		o.hasBufAge = true
	}
}

// WithBufferMaxEntries bounds a stateful process's history by entry count.
// Ignored by stateless processes.
func WithBufferMaxEntries(n int) Option {
	return func(o *options) {
		o.bufMaxLen = n
		o.hasBufLen = true
	}
}

func applyOptions(opts ...Option) *options {
	o := &options{}
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

// Base is the standard Process implementation. Concrete processes embed it,
// override any subset of the three hooks, and bind themselves:
//
//	type ramp struct {
//		process.Base
//	}
//
//	func newRamp() *ramp {
//		r := &ramp{Base: process.NewBase("ramp", process.RoleController, 0)}
//		r.Bind(r)
//		return r
//	}
//
// Base holds no state between ticks beyond cadence counters; persistent
// memory belongs in Stateful.
type Base struct {
	name     string
	id       uuid.UUID
	role     Role
	interval int64
	logger   *slog.Logger
	metrics  *metric.Metrics
	hooks    Hooks

	start      int64
	executions uint64

	// per-tick working input for the pass-through defaults
	in types.StateMap
}

// NewBase creates a base process with the given identity, role, and tick
// interval in nanoseconds.
func NewBase(name string, role Role, interval int64, opts ...Option) Base {
	o := applyOptions(opts...)
	b := Base{
		name:     name,
		id:       uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name+".process.aifand")),
		role:     role,
		interval: interval,
		logger:   o.logger.With("process", name),
	}
	if o.metrics != nil {
		b.metrics = o.metrics.CoreMetrics()
	}
	return b
}

// Bind attaches the outermost concrete type as the hook implementation.
// Constructors call this once, after embedding.
func (b *Base) Bind(h Hooks) {
	b.hooks = h
}

// Name returns the process name
func (b *Base) Name() string { return b.name }

// ID returns the stable process identity
func (b *Base) ID() uuid.UUID { return b.id }

// Role returns the permission role
func (b *Base) Role() Role { return b.role }

// Interval returns the tick interval in nanoseconds
func (b *Base) Interval() int64 { return b.interval }

// Logger returns the process logger for embedders
func (b *Base) Logger() *slog.Logger { return b.logger }

// Executions returns the number of completed ticks since Initialize
func (b *Base) Executions() uint64 { return b.executions }

// StartTime returns the cadence anchor set by Initialize
func (b *Base) StartTime() int64 { return b.start }

// Initialize seeds the cadence counters.
func (b *Base) Initialize(now int64) {
	b.start = now
	b.executions = 0
}

// NextRunAt implements the modulo cadence scheme: the process never bursts
// to catch up, it just runs later than ideal while average cadence stays
// exact. A zero interval is due whenever the parent polls.
func (b *Base) NextRunAt(now int64) int64 {
	if b.interval == 0 {
		return now
	}
	return b.start + int64(b.executions+1)*b.interval
}

// RecordExecution advances the cadence counter. Execute does this itself;
// composition processes that replace Execute wholesale call it directly.
func (b *Base) RecordExecution() {
	b.executions++
	if b.metrics != nil {
		b.metrics.ProcessExecutions.WithLabelValues(b.name).Inc()
	}
}

// Execute runs the three-hook pattern and enforces the failure policy:
// operational errors and panics are logged and absorbed, with the input
// passed through unchanged, so thermal control continues when a single
// stage fails. Cadence advances even on failure, so a broken stage keeps its
// tick rate instead of spinning. Permission violations propagate.
func (b *Base) Execute(ctx context.Context, in types.StateMap) (types.StateMap, error) {
	out, err := b.runHooks(ctx, in)
	b.RecordExecution()

	if err != nil {
		if errors.IsPermission(err) {
			b.violation(err)
			return types.StateMap{}, err
		}
		b.logger.Warn("process execution failed", "error", err)
		if b.metrics != nil {
			b.metrics.ProcessFailures.WithLabelValues(b.name).Inc()
		}
		return in, nil
	}

	if verr := CheckPermissions(b.role, in, out); verr != nil {
		verr = fmt.Errorf("process %s: %w", b.name, verr)
		b.violation(verr)
		return types.StateMap{}, verr
	}
	return out, nil
}

func (b *Base) violation(err error) {
	b.logger.Error("permission violation", "error", err)
	if b.metrics != nil {
		b.metrics.PermissionViolations.WithLabelValues(b.name).Inc()
	}
}

// runHooks executes import → think → export, converting panics into
// operational errors.
func (b *Base) runHooks(ctx context.Context, in types.StateMap) (out types.StateMap, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WrapOperational(fmt.Errorf("panic: %v", r), "Process", "Execute", "hook execution")
		}
	}()

	h := b.hooks
	if h == nil {
		h = b
	}
	if err = h.ImportState(ctx, in); err != nil {
		return types.StateMap{}, err
	}
	if err = h.Think(ctx); err != nil {
		return types.StateMap{}, err
	}
	return h.ExportState(ctx)
}

// ImportState is the pass-through default: it keeps the input for
// ExportState to emit.
func (b *Base) ImportState(_ context.Context, in types.StateMap) error {
	b.in = in
	return nil
}

// Think is the pass-through default: no computation.
func (b *Base) Think(context.Context) error {
	return nil
}

// ExportState is the pass-through default: it emits the imported input.
func (b *Base) ExportState(context.Context) (types.StateMap, error) {
	return b.in, nil
}

// Input returns the state map most recently absorbed by the default
// ImportState. Embedders that keep the default import read it here.
func (b *Base) Input() types.StateMap {
	return b.in
}
