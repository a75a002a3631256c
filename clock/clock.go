// Package clock provides the pluggable time source for process execution.
//
// Runners install their clock into the context they pass through Execute;
// processes read time only through Now(ctx). A FastRunner thereby makes its
// whole process tree see simulated time with no changes in the processes
// themselves.
package clock

import (
	"context"
	"time"
)

// Clock yields the current time in monotonic nanoseconds.
type Clock interface {
	Now() int64
}

// systemClock reads the OS monotonic clock, anchored at package init so
// values stay small and strictly comparable across the run.
type systemClock struct {
	base time.Time
}

func (c *systemClock) Now() int64 {
	return int64(time.Since(c.base))
}

var system Clock = &systemClock{base: time.Now()}

// System returns the process-wide monotonic clock.
func System() Clock {
	return system
}

type contextKey struct{}

// WithClock returns a context carrying the given clock. Runners call this
// once before entering their loop.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the clock installed in ctx, or the system clock when
// none is installed.
func FromContext(ctx context.Context) Clock {
	if c, ok := ctx.Value(contextKey{}).(Clock); ok {
		return c
	}
	return system
}

// Now reads the current time from the clock installed in ctx.
func Now(ctx context.Context) int64 {
	return FromContext(ctx).Now()
}
