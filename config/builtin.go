package config

import (
	"github.com/johnwbyrd/aifand/compose"
	"github.com/johnwbyrd/aifand/controllers/fixed"
	"github.com/johnwbyrd/aifand/controllers/pid"
	"github.com/johnwbyrd/aifand/environments/sim"
	"github.com/johnwbyrd/aifand/output/natspub"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/storage/recorder"
)

// RegisterBuiltins registers the composition primitives and the bundled
// leaf processes. External plug-ins register their own kinds alongside.
func RegisterBuiltins(r *Registry) error {
	builtins := map[string]Factory{
		"pipeline": buildPipeline,
		"system":   buildSystem,
		"fixed":    buildFixed,
		"pid":      buildPID,
		"sim":      buildSim,
		"natspub":  buildNATSPub,
		"recorder": buildRecorder,
	}
	for kind, f := range builtins {
		if err := r.Register(kind, f); err != nil {
			return err
		}
	}
	return nil
}

func buildPipeline(node *Node, deps Dependencies) (process.Process, error) {
	p := compose.NewPipeline(node.Name, node.IntervalNS, deps.ProcessOptions()...)
	reg := deps.registry
	for _, childNode := range node.Children {
		child, err := reg.Create(childNode, deps)
		if err != nil {
			return nil, err
		}
		if err := p.Append(child); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func buildSystem(node *Node, deps Dependencies) (process.Process, error) {
	s := compose.NewSystem(node.Name, node.IntervalNS, deps.ProcessOptions()...)
	reg := deps.registry
	for _, childNode := range node.Children {
		child, err := reg.Create(childNode, deps)
		if err != nil {
			return nil, err
		}
		if err := s.Append(child); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func buildFixed(node *Node, deps Dependencies) (process.Process, error) {
	var cfg struct {
		Settings map[string]float64 `yaml:"settings"`
	}
	if err := node.Decode(&cfg); err != nil {
		return nil, err
	}
	return fixed.New(node.Name, node.IntervalNS, cfg.Settings, deps.ProcessOptions()...), nil
}

func buildPID(node *Node, deps Dependencies) (process.Process, error) {
	var cfg pid.Config
	if err := node.Decode(&cfg); err != nil {
		return nil, err
	}
	opts := append(deps.ProcessOptions(), statefulOptions(node)...)
	return pid.New(node.Name, node.IntervalNS, cfg, opts...)
}

func buildSim(node *Node, deps Dependencies) (process.Process, error) {
	var cfg sim.Config
	if err := node.Decode(&cfg); err != nil {
		return nil, err
	}
	return sim.New(node.Name, node.IntervalNS, cfg, deps.ProcessOptions()...)
}

func buildNATSPub(node *Node, deps Dependencies) (process.Process, error) {
	var cfg natspub.Config
	if err := node.Decode(&cfg); err != nil {
		return nil, err
	}
	return natspub.New(node.Name, node.IntervalNS, cfg, deps.ProcessOptions()...)
}

func buildRecorder(node *Node, deps Dependencies) (process.Process, error) {
	var cfg recorder.Config
	if err := node.Decode(&cfg); err != nil {
		return nil, err
	}
	return recorder.New(node.Name, node.IntervalNS, cfg, deps.ProcessOptions()...)
}

// statefulOptions extracts the buffer bounds every stateful kind accepts.
func statefulOptions(node *Node) []process.Option {
	var cfg struct {
		BufferMaxAgeNS   int64 `yaml:"buffer_max_age_ns"`
		BufferMaxEntries int   `yaml:"buffer_max_entries"`
	}
	if err := node.Decode(&cfg); err != nil {
		return nil
	}
	var opts []process.Option
	if cfg.BufferMaxAgeNS > 0 {
		opts = append(opts, process.WithBufferMaxAge(cfg.BufferMaxAgeNS))
	}
	if cfg.BufferMaxEntries > 0 {
		opts = append(opts, process.WithBufferMaxEntries(cfg.BufferMaxEntries))
	}
	return opts
}
