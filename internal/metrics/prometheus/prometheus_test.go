package prometheus

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/yieldshift/sidecar/internal/metrics/metricsTypes"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) *PrometheusMetricsClient {
	client, err := NewPrometheusMetricsClient(&PrometheusMetricsConfig{
		Metrics:    metricsTypes.MetricTypes,
		Registerer: prometheus.NewRegistry(),
	}, zap.NewNop())
	assert.Nil(t, err)
	return client
}

func Test_PrometheusMetricsClient(t *testing.T) {
	t.Run("Converts dotted names", func(t *testing.T) {
		assert.Equal(t, "contract_read_failed", metricName(metricsTypes.Metric_Incr_ContractReadFailed))
	})
	t.Run("Increments a counter with its declared labels", func(t *testing.T) {
		client := newTestClient(t)
		labels := []metricsTypes.MetricsLabel{{Name: metricsTypes.Label_Category, Value: "vaults"}}

		assert.Nil(t, client.Incr(metricsTypes.Metric_Incr_PollSucceeded, labels, 1))
		assert.Nil(t, client.Incr(metricsTypes.Metric_Incr_PollSucceeded, labels, 2))

		m := &dto.Metric{}
		assert.Nil(t, client.counters[metricsTypes.Metric_Incr_PollSucceeded].WithLabelValues("vaults").Write(m))
		assert.Equal(t, float64(3), m.GetCounter().GetValue())
	})
	t.Run("Rejects undeclared labels", func(t *testing.T) {
		client := newTestClient(t)
		err := client.Incr(metricsTypes.Metric_Incr_PollSucceeded, []metricsTypes.MetricsLabel{{Name: "bogus", Value: "x"}}, 1)
		assert.NotNil(t, err)
	})
	t.Run("Ignores unknown metrics", func(t *testing.T) {
		client := newTestClient(t)
		assert.Nil(t, client.Gauge("does.not.exist", 1, nil))
		assert.Nil(t, client.Timing("does.not.exist", time.Second, nil))
	})
	t.Run("Sets gauges", func(t *testing.T) {
		client := newTestClient(t)
		assert.Nil(t, client.Gauge(metricsTypes.Metric_Gauge_ActiveVaultsCount, 4, nil))
		m := &dto.Metric{}
		assert.Nil(t, client.gauges[metricsTypes.Metric_Gauge_ActiveVaultsCount].WithLabelValues().Write(m))
		assert.Equal(t, float64(4), m.GetGauge().GetValue())
	})
}
