// Package history provides the timestamped StateMap buffer owned by
// stateful processes.
//
// The buffer is a time-ordered sequence of (timestamp, StateMap) entries
// with window queries and pruning. It performs no derived computation, no
// derivatives and no averages; that is the owning process's job. Buffers are
// private to their owning process and are accessed from a single runner
// goroutine, so they take no locks.
package history

import (
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/types"
)

// Entry is one stored snapshot.
type Entry struct {
	Timestamp int64
	States    types.StateMap
}

// Buffer holds chronologically ordered entries, bounded by the configured
// age and entry-count limits.
type Buffer struct {
	entries    []Entry
	maxAge     int64
	maxEntries int
}

// New creates a buffer. At least one bound should be configured to prevent
// unbounded growth; the defaults keep five minutes or one thousand entries,
// whichever trims harder.
func New(opts ...Option) *Buffer {
	cfg := applyOptions(opts...)
	return &Buffer{
		maxAge:     cfg.maxAge,
		maxEntries: cfg.maxEntries,
	}
}

// Store appends an entry. Timestamps must be non-decreasing: handing the
// buffer a timestamp earlier than its latest entry indicates a broken time
// source and propagates as a programming error.
func (b *Buffer) Store(timestamp int64, states types.StateMap) error {
	if n := len(b.entries); n > 0 && timestamp < b.entries[n-1].Timestamp {
		return errors.WrapPermission(errors.ErrTimeRegression, "Buffer", "Store", "timestamp ordering")
	}
	b.entries = append(b.entries, Entry{Timestamp: timestamp, States: states})
	b.trim(timestamp)
	return nil
}

// trim enforces the configured bounds, newest entries win.
func (b *Buffer) trim(now int64) {
	if b.maxAge > 0 {
		b.PruneBefore(now - b.maxAge)
	}
	if b.maxEntries > 0 && len(b.entries) > b.maxEntries {
		b.entries = b.entries[len(b.entries)-b.maxEntries:]
	}
}

// Recent returns entries newer than now − duration, in chronological order.
func (b *Buffer) Recent(now, duration int64) []Entry {
	return b.Range(now-duration+1, now)
}

// Range returns entries with start ≤ timestamp ≤ end, in chronological
// order.
func (b *Buffer) Range(start, end int64) []Entry {
	var result []Entry
	for _, e := range b.entries {
		if e.Timestamp >= start && e.Timestamp <= end {
			result = append(result, e)
		}
	}
	return result
}

// PruneBefore drops entries older than the given timestamp and returns the
// number removed.
func (b *Buffer) PruneBefore(timestamp int64) int {
	keep := 0
	for keep < len(b.entries) && b.entries[keep].Timestamp < timestamp {
		keep++
	}
	if keep == 0 {
		return 0
	}
	b.entries = append(b.entries[:0], b.entries[keep:]...)
	return keep
}

// Latest returns the most recent entry.
func (b *Buffer) Latest() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// Oldest returns the oldest entry.
func (b *Buffer) Oldest() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[0], true
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Clear removes all entries.
func (b *Buffer) Clear() {
	b.entries = b.entries[:0]
}
