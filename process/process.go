// Package process defines the computational unit abstraction: the Process
// contract, the Base implementation with its three-hook execution pattern,
// the stateful extension with history, and the permission arbiter that
// governs which role may mutate which device kind.
package process

import (
	"context"

	"github.com/google/uuid"

	"github.com/johnwbyrd/aifand/types"
)

// Role differentiates processes by permission rules, not behavior.
// Environments own sensor values; controllers own actuator values.
type Role int

const (
	// RoleNone marks coordination and observation processes with no
	// device ownership of their own
	RoleNone Role = iota
	// RoleEnvironment marks processes that interface with the physical
	// or simulated world
	RoleEnvironment
	// RoleController marks processes that decide actuator settings
	RoleController
)

// String returns a string representation of the role
func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleEnvironment:
		return "environment"
	case RoleController:
		return "controller"
	default:
		return "unknown"
	}
}

// Process is a computational unit that transforms state maps and declares
// its own execution cadence.
//
// Execute never returns an operational error: runtime failures are logged
// and absorbed at the process boundary, with the input passed through
// unchanged. The only errors that escape are permission violations and
// other programming errors, which must propagate to the runner.
type Process interface {
	// Name returns the unique name of this process within its parent
	Name() string
	// ID returns the stable identity of this process
	ID() uuid.UUID
	// Role returns the permission role of this process
	Role() Role
	// Interval returns the preferred inter-tick spacing in nanoseconds.
	// Zero means "run whenever the parent polls".
	Interval() int64
	// Initialize seeds cadence counters and rebuilds runtime state
	Initialize(now int64)
	// NextRunAt returns the monotonic nanosecond time at which this
	// process wishes next to run
	NextRunAt(now int64) int64
	// Execute transforms the input state map into an output state map
	Execute(ctx context.Context, in types.StateMap) (types.StateMap, error)
}

// Hooks factors Execute into three stages so algorithms can keep a native
// internal representation without paying conversion tax on every step.
// Base provides pass-through defaults; concrete processes override any
// subset and bind themselves with Base.Bind.
type Hooks interface {
	// ImportState absorbs the input into internal working form
	ImportState(ctx context.Context, in types.StateMap) error
	// Think performs the computation over internal state
	Think(ctx context.Context) error
	// ExportState emits the resulting state map
	ExportState(ctx context.Context) (types.StateMap, error)
}
