package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwbyrd/aifand/clock"
	"github.com/johnwbyrd/aifand/compose"
	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/process"
	"github.com/johnwbyrd/aifand/types"
)

// fakeClock is an externally advanced monotonic clock.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d int64) {
	c.mu.Lock()
	c.now += d
	c.mu.Unlock()
}

// instantSleeper advances the fake clock instead of sleeping, making a
// Standard runner deterministic and fast.
type instantSleeper struct {
	clk *fakeClock
}

func (s instantSleeper) Sleep(d time.Duration, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return false
	default:
	}
	s.clk.advance(int64(d))
	return true
}

// counter records the simulated time of each execution and signals when a
// target count is reached.
type counter struct {
	process.Base
	target int
	done   chan struct{}
	once   sync.Once
	times  []int64
	snaps  []types.StateMap
}

func newCounter(name string, interval int64, target int) *counter {
	c := &counter{
		Base:   process.NewBase(name, process.RoleNone, interval),
		target: target,
		done:   make(chan struct{}),
	}
	c.Bind(c)
	return c
}

func (c *counter) Think(ctx context.Context) error {
	c.times = append(c.times, clock.Now(ctx))
	c.snaps = append(c.snaps, c.Input())
	if len(c.times) == c.target {
		c.once.Do(func() { close(c.done) })
	}
	return nil
}

// rogueRoot violates permissions on its first tick.
type rogueRoot struct {
	process.Base
}

func newRogueRoot() *rogueRoot {
	p := &rogueRoot{Base: process.NewBase("rogue", process.RoleController, 10)}
	p.Bind(p)
	return p
}

func (p *rogueRoot) ExportState(context.Context) (types.StateMap, error) {
	return types.StateMap{}.With(types.RoleActual, types.NewState(types.NewSensor("phantom", 1, 1))), nil
}

func TestStandardRunnerLifecycle(t *testing.T) {
	clk := &fakeClock{}
	c := newCounter("count", 10_000_000, 5)
	r := NewStandard("main", c, WithClock(clk), WithSleeper(instantSleeper{clk}))

	assert.Equal(t, StateCreated, r.State())
	require.NoError(t, r.Start())

	err := r.Start()
	require.Error(t, err, "start is only valid in the created state")
	assert.True(t, errors.IsConfig(err))

	select {
	case <-c.done:
	case <-time.After(5 * time.Second):
		t.Fatal("runner never reached five executions")
	}

	require.NoError(t, r.Stop())
	assert.Equal(t, StateStopped, r.State())
	require.NoError(t, r.Stop(), "stop is idempotent")

	// cadence: Nth execution at >= N * interval
	require.GreaterOrEqual(t, len(c.times), 5)
	for i, ts := range c.times[:5] {
		assert.GreaterOrEqual(t, ts, int64(i+1)*10_000_000)
	}
	// the root receives an empty state map
	assert.Equal(t, 0, c.snaps[0].Len())
}

func TestStandardStopBeforeStart(t *testing.T) {
	r := NewStandard("idle", newCounter("c", 10, 1))
	require.NoError(t, r.Stop())
	assert.Equal(t, StateStopped, r.State())

	err := r.Start()
	require.Error(t, err, "a stopped runner cannot be restarted")
}

func TestStandardStopInterruptsWait(t *testing.T) {
	// real sleeper with a long interval: Stop must interrupt promptly
	c := newCounter("slow", int64(time.Hour), 1)
	r := NewStandard("main", c, WithStopTimeout(2*time.Second))
	require.NoError(t, r.Start())

	start := time.Now()
	require.NoError(t, r.Stop())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, StateStopped, r.State())
}

func TestStandardHaltsOnPermissionViolation(t *testing.T) {
	clk := &fakeClock{}
	r := NewStandard("main", newRogueRoot(), WithClock(clk), WithSleeper(instantSleeper{clk}))
	require.NoError(t, r.Start())

	require.Eventually(t, func() bool {
		return r.State() == StateStopped
	}, 5*time.Second, time.Millisecond)

	require.Error(t, r.LastErr())
	assert.True(t, errors.IsPermission(r.LastErr()))
}

func TestFastRunnerCadenceCounts(t *testing.T) {
	// S2: pipelines at 10ms and 30ms under one system, run for 100ms of
	// simulated time: 10 and 3 executions.
	a := newCounter("A", 10_000_000, 0)
	b := newCounter("B", 30_000_000, 0)
	pa := compose.NewPipeline("pa", 10_000_000)
	pb := compose.NewPipeline("pb", 30_000_000)
	require.NoError(t, pa.Append(a))
	require.NoError(t, pb.Append(b))
	sys := compose.NewSystem("zones", 0)
	require.NoError(t, sys.Append(pa))
	require.NoError(t, sys.Append(pb))

	r := NewFast("fast", sys)
	require.NoError(t, r.RunFor(100_000_000))

	assert.Len(t, a.times, 10)
	assert.Len(t, b.times, 3)
	assert.Equal(t, int64(100_000_000), r.Now())
}

func TestFastRunnerExactCadence(t *testing.T) {
	c := newCounter("count", 10, 0)
	r := NewFast("fast", c)
	require.NoError(t, r.RunFor(50))

	assert.Equal(t, []int64{10, 20, 30, 40, 50}, c.times)
}

func TestFastRunnerResumes(t *testing.T) {
	c := newCounter("count", 10, 0)
	r := NewFast("fast", c)
	require.NoError(t, r.RunFor(25))
	require.Len(t, c.times, 2)

	require.NoError(t, r.RunFor(25))
	assert.Equal(t, []int64{10, 20, 30, 40, 50}, c.times, "cadence continues across RunFor calls")
}

func TestFastRunnerStartUnsupported(t *testing.T) {
	r := NewFast("fast", newCounter("c", 10, 0))
	require.Error(t, r.Start())
}

func TestFastRunnerQuiescenceGuard(t *testing.T) {
	// a zero-interval root never advances simulated time; the guard must
	// bail out rather than loop forever
	c := newCounter("eager", 0, 0)
	r := NewFast("fast", c)
	require.NoError(t, r.RunFor(1_000_000))
	assert.NotEmpty(t, c.times)
}

func TestFastRunnerHaltsOnPermissionViolation(t *testing.T) {
	r := NewFast("fast", newRogueRoot())
	err := r.RunFor(100)
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err))
	assert.True(t, errors.IsPermission(r.LastErr()))
}

func TestFastAndStandardEquivalence(t *testing.T) {
	// S6: the same deterministic composition produces identical execution
	// timestamps under a FastRunner and under a StandardRunner driven by
	// a fake clock.
	build := func() (*compose.Pipeline, *counter) {
		c := newCounter("obs", 0, 8)
		p := compose.NewPipeline("loop", 25)
		require.NoError(t, p.Append(c))
		return p, c
	}

	fastRoot, fastObs := build()
	fr := NewFast("fast", fastRoot)
	require.NoError(t, fr.RunFor(200))

	stdRoot, stdObs := build()
	clk := &fakeClock{}
	sr := NewStandard("std", stdRoot, WithClock(clk), WithSleeper(instantSleeper{clk}))
	require.NoError(t, sr.Start())
	select {
	case <-stdObs.done:
	case <-time.After(5 * time.Second):
		t.Fatal("standard runner never reached target")
	}
	require.NoError(t, sr.Stop())

	require.GreaterOrEqual(t, len(fastObs.times), 8)
	assert.Equal(t, fastObs.times[:8], stdObs.times[:8])
}
