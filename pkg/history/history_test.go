package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwbyrd/aifand/errors"
	"github.com/johnwbyrd/aifand/types"
)

func snapshot(v float64, ts int64) types.StateMap {
	return types.StateMap{}.With(types.RoleActual, types.NewState(types.NewSensor("cpu_temp", v, ts)))
}

func TestStoreAndQuery(t *testing.T) {
	b := New()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, b.Store(i*10, snapshot(float64(i), i*10)))
	}
	assert.Equal(t, 5, b.Len())

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, int64(50), latest.Timestamp)

	oldest, ok := b.Oldest()
	require.True(t, ok)
	assert.Equal(t, int64(10), oldest.Timestamp)

	ranged := b.Range(20, 40)
	require.Len(t, ranged, 3)
	assert.Equal(t, int64(20), ranged[0].Timestamp)
	assert.Equal(t, int64(40), ranged[2].Timestamp)

	recent := b.Recent(50, 20)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(40), recent[0].Timestamp)
	assert.Equal(t, int64(50), recent[1].Timestamp)
}

func TestStoreEqualTimestampsAllowed(t *testing.T) {
	b := New()
	require.NoError(t, b.Store(10, snapshot(1, 10)))
	require.NoError(t, b.Store(10, snapshot(2, 10)))
	assert.Equal(t, 2, b.Len())
}

func TestStoreRejectsRegression(t *testing.T) {
	b := New()
	require.NoError(t, b.Store(100, snapshot(1, 100)))
	err := b.Store(99, snapshot(2, 99))
	require.Error(t, err)
	assert.True(t, errors.IsPermission(err), "time regression must propagate as a programming error")
	assert.Equal(t, 1, b.Len())
}

func TestPruneBefore(t *testing.T) {
	b := New()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, b.Store(i*10, snapshot(float64(i), i*10)))
	}
	removed := b.PruneBefore(30)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 3, b.Len())

	oldest, ok := b.Oldest()
	require.True(t, ok)
	assert.Equal(t, int64(30), oldest.Timestamp)

	assert.Equal(t, 0, b.PruneBefore(30))
}

func TestMaxEntriesBound(t *testing.T) {
	b := New(WithMaxEntries(3), WithMaxAge(0))
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, b.Store(i, snapshot(float64(i), i)))
	}
	assert.Equal(t, 3, b.Len())
	oldest, _ := b.Oldest()
	assert.Equal(t, int64(3), oldest.Timestamp)
}

func TestMaxAgeBound(t *testing.T) {
	b := New(WithMaxAge(100), WithMaxEntries(0))
	require.NoError(t, b.Store(0, snapshot(1, 0)))
	require.NoError(t, b.Store(50, snapshot(2, 50)))
	require.NoError(t, b.Store(150, snapshot(3, 150)))
	// the entry at 0 is older than 150-100
	assert.Equal(t, 2, b.Len())
	oldest, _ := b.Oldest()
	assert.Equal(t, int64(50), oldest.Timestamp)
}

func TestClearAndEmpty(t *testing.T) {
	b := New()
	_, ok := b.Latest()
	assert.False(t, ok)
	_, ok = b.Oldest()
	assert.False(t, ok)

	require.NoError(t, b.Store(1, snapshot(1, 1)))
	b.Clear()
	assert.Equal(t, 0, b.Len())
	// storing after clear may use any timestamp again
	require.NoError(t, b.Store(0, snapshot(1, 0)))
}
