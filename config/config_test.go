package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwbyrd/aifand/compose"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/runner"
)

func registry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, RegisterBuiltins(r))
	return r
}

const fullDocument = `
runner:
  name: main
  kind: fast
  stop_timeout_ns: 2000000000
root:
  kind: system
  name: zones
  children:
    - kind: pipeline
      name: cpu-loop
      interval_ns: 100000000
      children:
        - kind: sim
          name: cpu-env
          zones:
            - sensor: cpu_temp
              actuator: fan1
              initial: 50
              ambient: 25
              heat_rate: 2
              cool_rate: 0.05
        - kind: pid
          name: cpu-pid
          buffer_max_entries: 128
          sensor: cpu_temp
          actuator: fan1
          setpoint: 60
          kp: 8
          ki: 2
          out_max: 255
    - kind: pipeline
      name: gpu-loop
      interval_ns: 1000000000
      children:
        - kind: sim
          name: gpu-env
          zones:
            - sensor: gpu_temp
              actuator: fan2
              initial: 40
              ambient: 25
              heat_rate: 1
              cool_rate: 0.02
        - kind: fixed
          name: gpu-fixed
          settings:
            fan2: 96
`

func TestParseAndBuildFullDocument(t *testing.T) {
	doc, err := Parse([]byte(fullDocument))
	require.NoError(t, err)
	assert.Equal(t, "main", doc.Runner.Name)
	assert.Equal(t, RunnerFast, doc.Runner.Kind)

	r, root, err := doc.Build(registry(t), Dependencies{})
	require.NoError(t, err)

	fast, ok := r.(*runner.Fast)
	require.True(t, ok)
	assert.Equal(t, "main", fast.Name())

	sys, ok := root.(*compose.System)
	require.True(t, ok)
	assert.Equal(t, 2, sys.Count())

	cpu, ok := sys.Get("cpu-loop")
	require.True(t, ok)
	loop, ok := cpu.(*compose.Pipeline)
	require.True(t, ok)
	assert.Equal(t, 2, loop.Count())
	assert.True(t, loop.Has("cpu-env"))
	assert.True(t, loop.Has("cpu-pid"))
	assert.Equal(t, int64(100_000_000), loop.Interval())

	// the built tree actually runs
	require.NoError(t, fast.RunFor(1_000_000_000))
}

func TestBuildDefaultsToStandardRunner(t *testing.T) {
	doc, err := Parse([]byte("root:\n  kind: pipeline\n  name: loop\n"))
	require.NoError(t, err)

	r, _, err := doc.Build(registry(t), Dependencies{})
	require.NoError(t, err)
	_, ok := r.(*runner.Standard)
	assert.True(t, ok)
	assert.Equal(t, "aifand", r.Name())
}

func TestParseRejectsMissingRoot(t *testing.T) {
	_, err := Parse([]byte("runner:\n  name: main\n"))
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsUnknownKind(t *testing.T) {
	doc, err := Parse([]byte("root:\n  kind: warp-drive\n  name: x\n"))
	require.NoError(t, err)
	_, _, err = doc.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsMissingName(t *testing.T) {
	doc, err := Parse([]byte("root:\n  kind: pipeline\n"))
	require.NoError(t, err)
	_, _, err = doc.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsNegativeInterval(t *testing.T) {
	doc, err := Parse([]byte("root:\n  kind: pipeline\n  name: loop\n  interval_ns: -5\n"))
	require.NoError(t, err)
	_, _, err = doc.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsDuplicateChildNames(t *testing.T) {
	const doc = `
root:
  kind: pipeline
  name: loop
  children:
    - kind: fixed
      name: twin
      settings: {fan1: 1}
    - kind: fixed
      name: twin
      settings: {fan1: 2}
`
	d, err := Parse([]byte(doc))
	require.NoError(t, err)
	_, _, err = d.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsUnknownRunnerKind(t *testing.T) {
	d, err := Parse([]byte("runner:\n  kind: warp\nroot:\n  kind: pipeline\n  name: loop\n"))
	require.NoError(t, err)
	_, _, err = d.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestBuildRejectsBadLeafOptions(t *testing.T) {
	// pid without a sensor fails at build time, not at tick time
	const doc = `
root:
  kind: pid
  name: ctl
  actuator: fan1
`
	d, err := Parse([]byte(doc))
	require.NoError(t, err)
	_, _, err = d.Build(registry(t), Dependencies{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestRegistryRejectsDuplicateKind(t *testing.T) {
	r := registry(t)
	err := r.Register("pipeline", buildPipeline)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, r.Kinds(), "pipeline")
}
