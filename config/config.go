// Package config parses YAML documents into runner and process trees. All
// structural validation (unknown kinds, missing names, negative intervals,
// duplicate children, bad per-kind options) happens here at build time,
// never at tick time.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/runner"
)

// Runner kinds select the runner variant (RunnerConfig.Kind)
const (
	// RunnerStandard runs against the OS monotonic clock
	RunnerStandard = "standard"
	// RunnerFast runs against a simulated clock
	RunnerFast = "fast"
)

// RunnerConfig configures the execution loop.
type RunnerConfig struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	StopTimeoutNS int64  `yaml:"stop_timeout_ns"`
	MetricsAddr   string `yaml:"metrics_addr"`
}

// Document is a full daemon configuration: one runner driving one root
// process tree.
type Document struct {
	Runner RunnerConfig `yaml:"runner"`
	Root   *Node        `yaml:"root"`
}

// Node is one process definition in the tree. The common fields (kind,
// name, interval_ns, children) are decoded eagerly; the full mapping is
// retained so each factory can decode its own options struct.
type Node struct {
	Kind       string
	Name       string
	IntervalNS int64
	Children   []*Node

	raw *yaml.Node
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Kind       string  `yaml:"kind"`
		Name       string  `yaml:"name"`
		IntervalNS int64   `yaml:"interval_ns"`
		Children   []*Node `yaml:"children"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	n.Kind = head.Kind
	n.Name = head.Name
	n.IntervalNS = head.IntervalNS
	n.Children = head.Children
	n.raw = value
	return nil
}

// Decode unmarshals the node's full mapping into a kind-specific options
// struct. Factories call this with their own config type.
func (n *Node) Decode(out any) error {
	if n.raw == nil {
		return nil
	}
	if err := n.raw.Decode(out); err != nil {
		return errors.WrapConfig(err, "Node", "Decode", fmt.Sprintf("options for %q", n.Name))
	}
	return nil
}

// Validate checks the common fields.
func (n *Node) Validate() error {
	if n.Kind == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Node", "Validate", "kind is required")
	}
	if n.Name == "" {
		return errors.WrapConfig(errors.ErrMissingConfig, "Node", "Validate", fmt.Sprintf("name is required for kind %q", n.Kind))
	}
	if n.IntervalNS < 0 {
		return errors.WrapConfig(errors.ErrInvalidConfig, "Node", "Validate", fmt.Sprintf("negative interval for %q", n.Name))
	}
	return nil
}

// Parse reads a YAML document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapConfig(err, "Config", "Parse", "yaml unmarshal")
	}
	if doc.Root == nil {
		return nil, errors.WrapConfig(errors.ErrMissingConfig, "Config", "Parse", "root process")
	}
	return &doc, nil
}

// Build resolves the document into a runner driving the constructed
// process tree. It returns the runner together with the root process.
func (d *Document) Build(reg *Registry, deps Dependencies) (runner.Runner, process.Process, error) {
	root, err := reg.Create(d.Root, deps)
	if err != nil {
		return nil, nil, err
	}

	name := d.Runner.Name
	if name == "" {
		name = "aifand"
	}

	var opts []runner.Option
	if deps.Logger != nil {
		opts = append(opts, runner.WithLogger(deps.Logger))
	}
	if deps.Metrics != nil {
		opts = append(opts, runner.WithMetrics(deps.Metrics))
	}
	if d.Runner.StopTimeoutNS > 0 {
		opts = append(opts, runner.WithStopTimeout(asDuration(d.Runner.StopTimeoutNS)))
	}

	switch d.Runner.Kind {
	case "", RunnerStandard:
		return runner.NewStandard(name, root, opts...), root, nil
	case RunnerFast:
		return runner.NewFast(name, root, opts...), root, nil
	default:
		return nil, nil, errors.WrapConfig(errors.ErrInvalidConfig, "Config", "Build",
			fmt.Sprintf("unknown runner kind %q", d.Runner.Kind))
	}
}
