package metrics

import (
	"testing"
	"time"

	"github.com/mojo-fit/mojo-indexer/internal/logger"
	"github.com/mojo-fit/mojo-indexer/internal/metrics/metricsTypes"
	"github.com/mojo-fit/mojo-indexer/internal/metrics/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type recordingClient struct {
	incrs  map[string]float64
	gauges map[string]float64
	labels map[string][]metricsTypes.MetricsLabel
}

func newRecordingClient() *recordingClient {
	return &recordingClient{
		incrs:  map[string]float64{},
		gauges: map[string]float64{},
		labels: map[string][]metricsTypes.MetricsLabel{},
	}
}

func (r *recordingClient) Incr(name string, labels []metricsTypes.MetricsLabel, value float64) error {
	r.incrs[name] += value
	r.labels[name] = labels
	return nil
}

func (r *recordingClient) Gauge(name string, value float64, labels []metricsTypes.MetricsLabel) error {
	r.gauges[name] = value
	r.labels[name] = labels
	return nil
}

func (r *recordingClient) Timing(name string, value time.Duration, labels []metricsTypes.MetricsLabel) error {
	return nil
}

func Test_MetricsSink(t *testing.T) {
	t.Run("Should fan out to every client with default labels merged", func(t *testing.T) {
		a := newRecordingClient()
		b := newRecordingClient()
		sink, err := NewMetricsSink(&MetricsSinkConfig{
			DefaultLabels: []metricsTypes.MetricsLabel{{Name: "network", Value: "testnet"}},
		}, []metricsTypes.IMetricsClient{a, b})
		assert.Nil(t, err)

		assert.Nil(t, sink.Incr(metricsTypes.Metric_Incr_FactApplied, []metricsTypes.MetricsLabel{{Name: "kind", Value: "BetPlaced"}}, 2))
		assert.Nil(t, sink.Gauge(metricsTypes.Metric_Gauge_Checkpoint, 42, nil))

		for _, c := range []*recordingClient{a, b} {
			assert.Equal(t, float64(2), c.incrs[metricsTypes.Metric_Incr_FactApplied])
			assert.Equal(t, float64(42), c.gauges[metricsTypes.Metric_Gauge_Checkpoint])
			assert.Len(t, c.labels[metricsTypes.Metric_Incr_FactApplied], 2)
			assert.Equal(t, "network", c.labels[metricsTypes.Metric_Gauge_Checkpoint][0].Name)
		}
	})
	t.Run("Should accept measurements with no clients", func(t *testing.T) {
		sink := NewNoopMetricsSink()
		assert.Nil(t, sink.Incr(metricsTypes.Metric_Incr_WindowProcessed, nil, 1))
		assert.Nil(t, sink.Timing(metricsTypes.Metric_Timing_WindowDuration, time.Second, nil))
	})
}

func Test_PrometheusClient(t *testing.T) {
	l, _ := logger.NewLogger(&logger.LoggerConfig{Debug: false})

	t.Run("Should register declared metrics and record values", func(t *testing.T) {
		reg := prom.NewRegistry()
		pm, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
			Metrics:    metricsTypes.MetricTypes,
			Registerer: reg,
		}, l)
		assert.Nil(t, err)

		sink, _ := NewMetricsSink(&MetricsSinkConfig{}, []metricsTypes.IMetricsClient{pm})
		assert.Nil(t, sink.Incr(metricsTypes.Metric_Incr_WindowProcessed, nil, 1))
		assert.Nil(t, sink.Incr(metricsTypes.Metric_Incr_WindowProcessed, nil, 1))
		assert.Nil(t, sink.Gauge(metricsTypes.Metric_Gauge_Checkpoint, 1234, nil))

		families, err := reg.Gather()
		assert.Nil(t, err)

		values := map[string]float64{}
		for _, mf := range families {
			for _, m := range mf.GetMetric() {
				if m.GetCounter() != nil {
					values[mf.GetName()] += m.GetCounter().GetValue()
				}
				if m.GetGauge() != nil {
					values[mf.GetName()] += m.GetGauge().GetValue()
				}
			}
		}
		assert.Equal(t, float64(2), values[metricsTypes.Metric_Incr_WindowProcessed])
		assert.Equal(t, float64(1234), values[metricsTypes.Metric_Gauge_Checkpoint])
	})
	t.Run("Should ignore unknown metric names", func(t *testing.T) {
		pm, err := prometheus.NewPrometheusMetricsClient(&prometheus.PrometheusMetricsConfig{
			Metrics:    metricsTypes.MetricTypes,
			Registerer: prom.NewRegistry(),
		}, l)
		assert.Nil(t, err)
		assert.Nil(t, pm.Incr("not_a_metric", nil, 1))
	})
}
