package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceConstruction(t *testing.T) {
	s := NewSensor("cpu_temp", 50.0, 1000)
	assert.Equal(t, "cpu_temp", s.Name())
	assert.Equal(t, KindSensor, s.Kind())
	assert.Equal(t, 50.0, s.Value())
	assert.Equal(t, int64(1000), s.Timestamp())
	assert.Equal(t, QualityValid, s.Quality())

	a := NewActuator("fan1", 128, 1000)
	assert.Equal(t, KindActuator, a.Kind())
}

func TestDeviceIDStable(t *testing.T) {
	a := NewSensor("cpu_temp", 50.0, 0)
	b := NewSensor("cpu_temp", 70.0, 999)
	assert.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.ID(), NewSensor("gpu_temp", 50.0, 0).ID())
}

func TestDeviceWithValueLeavesOriginal(t *testing.T) {
	d := NewSensor("cpu_temp", 50.0, 1000)
	d2 := d.WithValue(60.0, 2000)
	assert.Equal(t, 50.0, d.Value())
	assert.Equal(t, int64(1000), d.Timestamp())
	assert.Equal(t, 60.0, d2.Value())
	assert.Equal(t, int64(2000), d2.Timestamp())
	assert.Equal(t, d.Kind(), d2.Kind())
}

func TestDeviceAttrs(t *testing.T) {
	d := NewSensor("cpu_temp", 50.0, 0).
		WithAttr("unit", String("C")).
		WithAttr("max", Number(95)).
		WithAttr("priority", Integer(3))

	unit, ok := d.Attr("unit")
	require.True(t, ok)
	assert.Equal(t, "C", unit.Text())

	maxAttr, ok := d.Attr("max")
	require.True(t, ok)
	assert.Equal(t, 95.0, maxAttr.Float())

	prio, ok := d.Attr("priority")
	require.True(t, ok)
	assert.Equal(t, int64(3), prio.Int())

	_, ok = d.Attr("missing")
	assert.False(t, ok)
	assert.ElementsMatch(t, []string{"unit", "max", "priority"}, d.AttrKeys())
}

func TestDeviceWithAttrDoesNotShareMap(t *testing.T) {
	d := NewSensor("cpu_temp", 50.0, 0).WithAttr("unit", String("C"))
	d2 := d.WithAttr("label", String("Package"))
	_, ok := d.Attr("label")
	assert.False(t, ok)
	_, ok = d2.Attr("label")
	assert.True(t, ok)
}

func TestQuality(t *testing.T) {
	assert.Equal(t, "valid", QualityValid.String())
	assert.Equal(t, "unavailable", QualityUnavailable.String())
	assert.False(t, QualityValid.Latched())
	assert.False(t, QualityStale.Latched())
	assert.True(t, QualityFailed.Latched())
	assert.True(t, QualityUnavailable.Latched())

	q, ok := ParseQuality("stale")
	require.True(t, ok)
	assert.Equal(t, QualityStale, q)
	_, ok = ParseQuality("nonsense")
	assert.False(t, ok)
}

func TestStateUniquenessAndLookup(t *testing.T) {
	s := NewState(
		NewSensor("cpu_temp", 50.0, 0),
		NewSensor("cpu_temp", 60.0, 1),
		NewActuator("fan1", 0, 0),
	)
	assert.Equal(t, 2, s.Len())
	d, ok := s.Device("cpu_temp")
	require.True(t, ok)
	assert.Equal(t, 60.0, d.Value())
	assert.Equal(t, []string{"cpu_temp", "fan1"}, s.Names())
}

func TestStateCopyOnWrite(t *testing.T) {
	s := NewState(NewSensor("cpu_temp", 50.0, 0))
	s2 := s.WithDevice(NewActuator("fan1", 0, 0))
	s3 := s2.WithoutDevice("cpu_temp")

	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, s2.Len())
	assert.Equal(t, 1, s3.Len())
	assert.True(t, s2.Has("cpu_temp"))
	assert.False(t, s3.Has("cpu_temp"))

	// removing an absent device is a no-op
	s4 := s.WithoutDevice("nope")
	assert.Equal(t, s.Len(), s4.Len())
}

func TestStateWithDevices(t *testing.T) {
	s := NewState().WithDevices(
		NewSensor("a", 1, 0),
		NewSensor("b", 2, 0),
	)
	assert.Equal(t, 2, s.Len())
}

func TestStateMapRoles(t *testing.T) {
	var m StateMap
	assert.Equal(t, 0, m.Len())

	actual := NewState(NewSensor("cpu_temp", 50.0, 0))
	m2 := m.With(RoleActual, actual)
	assert.Equal(t, 0, m.Len())
	assert.Equal(t, 1, m2.Len())

	got, ok := m2.Actual()
	require.True(t, ok)
	assert.True(t, got.Has("cpu_temp"))

	_, ok = m2.Desired()
	assert.False(t, ok)

	m3 := m2.With(RoleDesired, NewState()).With("ambient", NewState())
	assert.Equal(t, []string{"actual", "ambient", "desired"}, m3.Roles())

	m4 := m3.Without("ambient")
	assert.False(t, m4.Has("ambient"))
	assert.True(t, m3.Has("ambient"))
}
