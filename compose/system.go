package compose

import (
	"container/heap"
	"context"
	"fmt"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// System coordinates children that run independently on their own cadences:
// a CPU zone at 100ms, a GPU zone at 1s, an ambient loop at 30s. It keeps a
// min-heap keyed by each child's next-run time; its own NextRunAt is the
// heap minimum, so systems are event-driven rather than polling.
//
// On each tick every due child runs with an empty state map; children of a
// system do not share per-tick state. Cross-zone coupling, when needed, is
// explicit through a higher-level process exposing aggregates as devices.
//
// Children scheduled for the same instant run in insertion order. The order
// is deterministic so tests are reproducible.
type System struct {
	process.Base
	childList

	sched       schedule
	lastNow     int64
	initialized bool
}

// NewSystem creates an empty system. The interval only matters while the
// system has no children; with children its cadence is the earliest child
// deadline.
func NewSystem(name string, interval int64, opts ...process.Option) *System {
	return &System{Base: process.NewBase(name, process.RoleNone, interval, opts...)}
}

// Initialize seeds cadence counters for the system and all children and
// builds the schedule.
func (s *System) Initialize(now int64) {
	s.Base.Initialize(now)
	s.lastNow = now
	s.initialized = true
	for _, child := range s.children {
		child.Initialize(now)
	}
	s.rebuild()
}

// NextRunAt returns the earliest deadline across children, or the system's
// own cadence when it has none.
func (s *System) NextRunAt(now int64) int64 {
	if len(s.sched) == 0 {
		return s.Base.NextRunAt(now)
	}
	return s.sched[0].at
}

// Execute runs every child whose deadline has arrived, each with an empty
// state map, re-enqueueing it at its new deadline. The input passes through
// unchanged to the caller.
func (s *System) Execute(ctx context.Context, in types.StateMap) (types.StateMap, error) {
	now := clock.Now(ctx)
	s.lastNow = now

	// Drain the due set before running anything: a zero-interval child
	// re-enqueues at now and must still run only once per system tick.
	var due []*schedItem
	for len(s.sched) > 0 && s.sched[0].at <= now {
		due = append(due, heap.Pop(&s.sched).(*schedItem))
	}

	for i, item := range due {
		_, err := item.proc.Execute(ctx, types.StateMap{})
		item.at = item.proc.NextRunAt(now)
		heap.Push(&s.sched, item)
		if err != nil {
			if errors.IsPermission(err) {
				for _, rest := range due[i+1:] {
					heap.Push(&s.sched, rest)
				}
				return types.StateMap{}, fmt.Errorf("system %s: %w", s.Name(), err)
			}
			s.Logger().Warn("child failed in system", "child", item.proc.Name(), "error", err)
		}
	}

	s.RecordExecution()
	return in, nil
}

// Append adds a child. On a live system the child is initialized at the
// last observed time and scheduled immediately.
func (s *System) Append(child process.Process) error {
	if s.Has(child.Name()) {
		return errors.WrapConfig(errors.ErrDuplicateName, "System", "Append", fmt.Sprintf("child %q", child.Name()))
	}
	s.children = append(s.children, child)
	if s.initialized {
		child.Initialize(s.lastNow)
		s.rebuild()
	}
	return nil
}

// Remove removes a child by name and drops it from the schedule.
func (s *System) Remove(name string) bool {
	i := s.index(name)
	if i < 0 {
		return false
	}
	s.removeAt(i)
	s.rebuild()
	return true
}

// InsertBefore inserts a child before the named target. For a system the
// position only affects the same-instant tie-break order.
func (s *System) InsertBefore(target string, child process.Process) error {
	return s.insert(target, child, 0)
}

// InsertAfter inserts a child after the named target.
func (s *System) InsertAfter(target string, child process.Process) error {
	return s.insert(target, child, 1)
}

func (s *System) insert(target string, child process.Process, offset int) error {
	if s.Has(child.Name()) {
		return errors.WrapConfig(errors.ErrDuplicateName, "System", "Insert", fmt.Sprintf("child %q", child.Name()))
	}
	i := s.index(target)
	if i < 0 {
		return errors.WrapConfig(errors.ErrTargetNotFound, "System", "Insert", fmt.Sprintf("target %q", target))
	}
	s.insertAt(i+offset, child)
	if s.initialized {
		child.Initialize(s.lastNow)
	}
	s.rebuild()
	return nil
}

// rebuild reconstructs the schedule from the children's own deadlines.
// Deadlines derive from each child's cadence counters, so rebuilding never
// perturbs the schedule of already-running children.
func (s *System) rebuild() {
	if !s.initialized {
		return
	}
	s.sched = s.sched[:0]
	for i, child := range s.children {
		s.sched = append(s.sched, &schedItem{at: child.NextRunAt(s.lastNow), seq: i, proc: child})
	}
	heap.Init(&s.sched)
}

// schedItem is one heap entry: a child and its next deadline. seq is the
// insertion position, the same-instant tie-break.
type schedItem struct {
	at   int64
	seq  int
	proc process.Process
}

type schedule []*schedItem

func (h schedule) Len() int { return len(h) }

func (h schedule) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h schedule) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *schedule) Push(x any) {
	*h = append(*h, x.(*schedItem))
}

func (h *schedule) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
