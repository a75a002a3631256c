package config

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/metric"
	"github.com/johnwbyrd/aifand/process"
)

// Dependencies carries the ambient collaborators handed to every factory.
type Dependencies struct {
	Logger  *slog.Logger
	Metrics *metric.Registry

	// registry is injected by Create so composite factories can recurse
	registry *Registry
}

// ProcessOptions converts the dependencies into process construction
// options.
func (d Dependencies) ProcessOptions() []process.Option {
	var opts []process.Option
	if d.Logger != nil {
		opts = append(opts, process.WithLogger(d.Logger))
	}
	if d.Metrics != nil {
		opts = append(opts, process.WithMetrics(d.Metrics))
	}
	return opts
}

// Factory creates a process instance from its configuration node. The
// factory decodes its own options struct from the node and performs no I/O.
type Factory func(node *Node, deps Dependencies) (process.Process, error)

// Registry maps process kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty factory registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for a kind. Duplicate kinds are rejected.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" || f == nil {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Registry", "Register", "kind and factory are required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return errors.WrapConfig(errors.ErrDuplicateName, "Registry", "Register", fmt.Sprintf("kind %q", kind))
	}
	r.factories[kind] = f
	return nil
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	return kinds
}

// Create builds the process described by the node, recursing through the
// registered factory.
func (r *Registry) Create(node *Node, deps Dependencies) (process.Process, error) {
	if err := node.Validate(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	f, ok := r.factories[node.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.WrapConfig(errors.ErrUnknownKind, "Registry", "Create",
			fmt.Sprintf("kind %q for %q", node.Kind, node.Name))
	}

	deps.registry = r
	p, err := f(node, deps)
	if err != nil {
		return nil, errors.WrapConfig(err, "Registry", "Create", fmt.Sprintf("building %q", node.Name))
	}
	return p, nil
}

func asDuration(ns int64) time.Duration {
	return time.Duration(ns)
}
