package metric

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnwbyrd/aifand/errors"
)

func TestNewRegistryHasCoreMetrics(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.CoreMetrics())
	require.NotNil(t, r.PrometheusRegistry())

	r.CoreMetrics().RunnerTicks.WithLabelValues("main").Inc()
	r.CoreMetrics().ProcessFailures.WithLabelValues("pid").Add(2)

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["aifand_runner_ticks_total"])
	assert.True(t, names["aifand_process_failures_total"])
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "pid_output_value", Help: "test"})
	require.NoError(t, r.Register("pid", "output", c))

	err := r.Register("pid", "output", c)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	c := prometheus.NewGauge(prometheus.GaugeOpts{Name: "sim_temp", Help: "test"})
	require.NoError(t, r.Register("sim", "temp", c))
	assert.True(t, r.Unregister("sim", "temp"))
	assert.False(t, r.Unregister("sim", "temp"))

	// re-registering after unregister works
	require.NoError(t, r.Register("sim", "temp", c))
}

func TestIsolatedRegistries(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "only_in_a", Help: "test"})
	require.NoError(t, a.Register("x", "y", c))
	require.Error(t, a.Register("x", "y", c))
	require.NoError(t, b.Register("x", "y", prometheus.NewCounter(prometheus.CounterOpts{Name: "only_in_a", Help: "test"})))
}

func TestHandlerServesExposition(t *testing.T) {
	r := NewRegistry()
	r.CoreMetrics().RunnerTicks.WithLabelValues("main").Inc()

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
}
