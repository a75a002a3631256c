package compose

import (
	"context"
	"fmt"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// Pipeline executes its children serially, threading each child's output
// into the next child's input. An empty pipeline is the identity. A
// pipeline runs as a unit: every tick runs all of its children in order,
// never a subset.
//
// A child that fails operationally has already returned its input unchanged
// (the process-level failure policy), so subsequent children still run on
// usable data. Permission violations abort the fold and propagate.
type Pipeline struct {
	process.Base
	childList
}

// NewPipeline creates an empty pipeline with the given tick interval in
// nanoseconds.
func NewPipeline(name string, interval int64, opts ...process.Option) *Pipeline {
	return &Pipeline{Base: process.NewBase(name, process.RoleNone, interval, opts...)}
}

// Initialize seeds cadence counters for the pipeline and all children.
func (p *Pipeline) Initialize(now int64) {
	p.Base.Initialize(now)
	for _, child := range p.children {
		child.Initialize(now)
	}
}

// Execute folds the input through the children in append order.
func (p *Pipeline) Execute(ctx context.Context, in types.StateMap) (types.StateMap, error) {
	current := in
	for _, child := range p.children {
		out, err := child.Execute(ctx, current)
		if err != nil {
			if errors.IsPermission(err) {
				return types.StateMap{}, fmt.Errorf("pipeline %s: %w", p.Name(), err)
			}
			// Defensive: a well-behaved child never returns an
			// operational error, it passes through. Keep the previous
			// state map and continue.
			p.Logger().Warn("child failed in pipeline", "child", child.Name(), "error", err)
			continue
		}
		current = out
	}
	p.RecordExecution()
	return current, nil
}

// Append adds a child at the end of the pipeline. The same instance may
// appear at several positions (an environment reading at the head and
// writing at the tail); only a distinct child with a colliding name is
// rejected.
func (p *Pipeline) Append(child process.Process) error {
	if existing, ok := p.Get(child.Name()); ok && existing != child {
		return errors.WrapConfig(errors.ErrDuplicateName, "Pipeline", "Append", fmt.Sprintf("child %q", child.Name()))
	}
	p.children = append(p.children, child)
	return nil
}

// Remove removes a child by name, reporting whether it was present.
func (p *Pipeline) Remove(name string) bool {
	i := p.index(name)
	if i < 0 {
		return false
	}
	p.removeAt(i)
	return true
}

// InsertBefore inserts a child immediately before the named target.
func (p *Pipeline) InsertBefore(target string, child process.Process) error {
	return p.insert(target, child, 0)
}

// InsertAfter inserts a child immediately after the named target.
func (p *Pipeline) InsertAfter(target string, child process.Process) error {
	return p.insert(target, child, 1)
}

func (p *Pipeline) insert(target string, child process.Process, offset int) error {
	if existing, ok := p.Get(child.Name()); ok && existing != child {
		return errors.WrapConfig(errors.ErrDuplicateName, "Pipeline", "Insert", fmt.Sprintf("child %q", child.Name()))
	}
	i := p.index(target)
	if i < 0 {
		return errors.WrapConfig(errors.ErrTargetNotFound, "Pipeline", "Insert", fmt.Sprintf("target %q", target))
	}
	p.insertAt(i+offset, child)
	return nil
}
