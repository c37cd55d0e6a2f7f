package metricsTypes

import "time"

type IMetricsClient interface {
	Incr(name string, labels []MetricsLabel, value float64) error
	Gauge(name string, value float64, labels []MetricsLabel) error
	Timing(name string, value time.Duration, labels []MetricsLabel) error
}

type MetricsLabel struct {
	Name  string
	Value string
}

type MetricsType string

var (
	MetricsType_Incr   MetricsType = "incr"
	MetricsType_Gauge  MetricsType = "gauge"
	MetricsType_Timing MetricsType = "timing"
)

type MetricsTypeConfig struct {
	Name   string
	Labels []string
}

var (
	Metric_Incr_WindowProcessed = "indexer_window_processed"
	Metric_Incr_FactApplied     = "indexer_fact_applied"
	Metric_Incr_RunFailed       = "indexer_run_failed"
	Metric_Incr_HttpRequest     = "rpc_http_request"

	Metric_Gauge_Checkpoint = "indexer_checkpoint"
	Metric_Gauge_LedgerTip  = "indexer_ledger_tip"

	Metric_Timing_WindowDuration = "indexer_window_duration"
	Metric_Timing_HttpDuration   = "rpc_http_duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_WindowProcessed,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_FactApplied,
			Labels: []string{"kind"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_RunFailed,
			Labels: []string{"reason"},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_HttpRequest,
			Labels: []string{"route", "status"},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_Checkpoint,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_LedgerTip,
			Labels: []string{},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_WindowDuration,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_HttpDuration,
			Labels: []string{"route"},
		},
	},
}
