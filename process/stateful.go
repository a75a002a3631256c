package process

import (
	"context"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/pkg/history"
	"github.com/johnwbyrd/aifand/types"
)

// Stateful is a Base with an owned history buffer, the foundation for
// algorithms that need memory: PID derivative terms, spike detection,
// training data.
//
// Configuration (interval, buffer bounds) is serializable; the buffer's
// contents are runtime-only and are rebuilt empty by Initialize.
type Stateful struct {
	Base

	bufOpts []history.Option
	buf     *history.Buffer
}

// NewStateful creates a stateful process. WithBufferMaxAge and
// WithBufferMaxEntries bound the history; at least one bound is always
// active (the history package defaults apply otherwise).
func NewStateful(name string, role Role, interval int64, opts ...Option) Stateful {
	o := applyOptions(opts...)
	var bufOpts []history.Option
	if o.hasBufAge {
		bufOpts = append(bufOpts, history.WithMaxAge(o.bufMaxAge))
	}
	if o.hasBufLen {
		bufOpts = append(bufOpts, history.WithMaxEntries(o.bufMaxLen))
	}
	return Stateful{
		Base:    NewBase(name, role, interval, opts...),
		bufOpts: bufOpts,
		buf:     history.New(bufOpts...),
	}
}

// Initialize resets cadence counters and discards accumulated history.
func (s *Stateful) Initialize(now int64) {
	s.Base.Initialize(now)
	s.buf = history.New(s.bufOpts...)
}

// ImportState keeps the pass-through default and additionally stores the
// incoming state map at the current time.
func (s *Stateful) ImportState(ctx context.Context, in types.StateMap) error {
	if err := s.Base.ImportState(ctx, in); err != nil {
		return err
	}
	return s.buf.Store(clock.Now(ctx), in)
}

// History returns the owned buffer for the embedding algorithm to query.
func (s *Stateful) History() *history.Buffer {
	return s.buf
}
