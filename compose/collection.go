// Package compose provides the two composition primitives: Pipeline (serial,
// children run in order sharing per-tick state) and System (parallel in
// logical time, children run independently on their own cadences via a
// priority queue of next-run times).
package compose

import (
	"github.com/johnwbyrd/aifand/process"
)

// Collection is the management surface shared by Pipeline and System. The
// two are distinct types, a serial fold and a schedule, sharing only this
// small mutation protocol.
//
// All mutation errors are configuration errors, raised at build/mutation
// time, never at tick time.
type Collection interface {
	process.Process

	// Count returns the number of children
	Count() int
	// Append adds a child. Duplicate child names are rejected.
	Append(p process.Process) error
	// Remove removes a child by name, reporting whether it was present
	Remove(name string) bool
	// Has reports whether a child with the given name exists
	Has(name string) bool
	// Get returns the named child
	Get(name string) (process.Process, bool)
	// InsertBefore inserts a child before the named target
	InsertBefore(target string, p process.Process) error
	// InsertAfter inserts a child after the named target
	InsertAfter(target string, p process.Process) error
}

// childList implements the ordered child bookkeeping shared by both
// composition types.
type childList struct {
	children []process.Process
}

func (c *childList) Count() int {
	return len(c.children)
}

func (c *childList) Has(name string) bool {
	return c.index(name) >= 0
}

func (c *childList) Get(name string) (process.Process, bool) {
	if i := c.index(name); i >= 0 {
		return c.children[i], true
	}
	return nil, false
}

func (c *childList) index(name string) int {
	for i, child := range c.children {
		if child.Name() == name {
			return i
		}
	}
	return -1
}

func (c *childList) insertAt(i int, p process.Process) {
	c.children = append(c.children, nil)
	copy(c.children[i+1:], c.children[i:])
	c.children[i] = p
}

func (c *childList) removeAt(i int) {
	c.children = append(c.children[:i], c.children[i+1:]...)
}
