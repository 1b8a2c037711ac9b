package metric

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherValue(t *testing.T, registry *MetricsRegistry, name string) (float64, bool) {
	t.Helper()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range metricFamilies {
		if mf.GetName() == name {
			require.NotEmpty(t, mf.GetMetric())
			return mf.GetMetric()[0].GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func TestMetricsRegistry_RegisterSampler(t *testing.T) {
	registry := NewMetricsRegistry()

	err := registry.RegisterSampler("engine", "state", func() []Sample {
		return []Sample{
			{Name: "bakery_engine_queue_depth", Help: "Current queue depth", Value: 7},
		}
	})
	require.NoError(t, err)

	value, found := gatherValue(t, registry, "bakery_engine_queue_depth")
	assert.True(t, found, "sampler output should appear in Gather")
	assert.Equal(t, 7.0, value)
}

func TestMetricsRegistry_SamplerReadsCurrentValue(t *testing.T) {
	registry := NewMetricsRegistry()

	var depth atomic.Int64
	depth.Store(3)

	err := registry.RegisterSampler("engine", "queue", func() []Sample {
		return []Sample{
			{Name: "bakery_engine_pending", Help: "Pending work items", Value: float64(depth.Load())},
		}
	})
	require.NoError(t, err)

	value, found := gatherValue(t, registry, "bakery_engine_pending")
	require.True(t, found)
	assert.Equal(t, 3.0, value)

	// The function is re-evaluated on every scrape
	depth.Store(9)
	value, found = gatherValue(t, registry, "bakery_engine_pending")
	require.True(t, found)
	assert.Equal(t, 9.0, value)
}

func TestMetricsRegistry_SamplerWithLabels(t *testing.T) {
	registry := NewMetricsRegistry()

	err := registry.RegisterSampler("oven", "temps", func() []Sample {
		return []Sample{
			{
				Name:   "bakery_oven_temperature_celsius",
				Help:   "Current oven temperature",
				Value:  220,
				Labels: map[string]string{"oven": "north", "zone": "top"},
			},
			{
				Name:   "bakery_oven_temperature_celsius",
				Help:   "Current oven temperature",
				Value:  195,
				Labels: map[string]string{"oven": "south", "zone": "top"},
			},
		}
	})
	require.NoError(t, err)

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	for _, mf := range metricFamilies {
		if mf.GetName() != "bakery_oven_temperature_celsius" {
			continue
		}
		require.Len(t, mf.GetMetric(), 2)
		for _, m := range mf.GetMetric() {
			assert.Len(t, m.GetLabel(), 2)
		}
		return
	}
	t.Fatal("labeled sampler output not found in Gather")
}

func TestMetricsRegistry_RegisterSamplerNilFunc(t *testing.T) {
	registry := NewMetricsRegistry()

	err := registry.RegisterSampler("engine", "state", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sample function")
}

func TestMetricsRegistry_RegisterSamplerDuplicate(t *testing.T) {
	registry := NewMetricsRegistry()

	sample := func() []Sample { return nil }

	require.NoError(t, registry.RegisterSampler("engine", "state", sample))

	err := registry.RegisterSampler("engine", "state", sample)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestMetricsRegistry_SamplerUnregister(t *testing.T) {
	registry := NewMetricsRegistry()

	err := registry.RegisterSampler("engine", "state", func() []Sample {
		return []Sample{{Name: "bakery_engine_short_lived", Value: 1}}
	})
	require.NoError(t, err)

	assert.True(t, registry.Unregister("engine", "state"))

	_, found := gatherValue(t, registry, "bakery_engine_short_lived")
	assert.False(t, found, "unregistered sampler must not be scraped")
}
