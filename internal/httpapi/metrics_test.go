package httpapi

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of the named family whose label matches.
func counterValue(t *testing.T, m *Metrics, family, label, value string) float64 {
	t.Helper()
	mfs, err := m.registry.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					sum += metric.GetCounter().GetValue()
				}
			}
		}
	}
	return sum
}

func TestMetrics_ObserveSource(t *testing.T) {
	m := NewMetrics()
	m.ObserveSource("ok")
	m.ObserveSource("ok")
	m.ObserveSource("inline")

	require.Equal(t, float64(2), testutil.ToFloat64(m.Sources.WithLabelValues("ok")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.Sources.WithLabelValues("inline")))
	require.Equal(t, 2, testutil.CollectAndCount(m.Sources))
}
