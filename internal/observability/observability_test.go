package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterOnFreshRegistry(t *testing.T) {
	m := NewMetricsForTesting()
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m.FetchRequests))
	for _, c := range m.collectors()[1:] {
		require.NoError(t, reg.Register(c))
	}

	m.FetchRequests.WithLabelValues("epc", "success").Inc()
	m.Reports.WithLabelValues("incomplete").Inc()
	m.InvestmentScore.Observe(56.5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRequests.WithLabelValues("epc", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Reports.WithLabelValues("incomplete")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.InvestmentScore))
}
