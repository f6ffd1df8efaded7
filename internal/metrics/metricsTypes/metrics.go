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

const (
	Label_Category  = "category"
	Label_Method    = "method"
	Label_EventType = "eventType"
	Label_Path      = "path"
)

var (
	Metric_Incr_PollSucceeded       = "poll.succeeded"
	Metric_Incr_PollFailed          = "poll.failed"
	Metric_Incr_PollSkipped         = "poll.skipped"
	Metric_Incr_ContractRead        = "contract.read"
	Metric_Incr_ContractReadFailed  = "contract.read.failed"
	Metric_Incr_ActivityEvent       = "activity.event"
	Metric_Incr_HttpRequest         = "rpc.http.request"
	Metric_Gauge_ActiveVaultsCount  = "vaults.active"
	Metric_Gauge_ActivityBufferSize = "activity.buffer.size"
	Metric_Timing_PollDuration      = "poll.duration"
	Metric_Timing_HttpDuration      = "rpc.http.duration"
)

var MetricTypes = map[MetricsType][]MetricsTypeConfig{
	MetricsType_Incr: {
		MetricsTypeConfig{
			Name:   Metric_Incr_PollSucceeded,
			Labels: []string{Label_Category},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_PollFailed,
			Labels: []string{Label_Category},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_PollSkipped,
			Labels: []string{Label_Category},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ContractRead,
			Labels: []string{Label_Method},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ContractReadFailed,
			Labels: []string{Label_Method},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_ActivityEvent,
			Labels: []string{Label_EventType},
		},
		MetricsTypeConfig{
			Name:   Metric_Incr_HttpRequest,
			Labels: []string{Label_Path},
		},
	},
	MetricsType_Gauge: {
		MetricsTypeConfig{
			Name:   Metric_Gauge_ActiveVaultsCount,
			Labels: []string{},
		},
		MetricsTypeConfig{
			Name:   Metric_Gauge_ActivityBufferSize,
			Labels: []string{Label_EventType},
		},
	},
	MetricsType_Timing: {
		MetricsTypeConfig{
			Name:   Metric_Timing_PollDuration,
			Labels: []string{Label_Category},
		},
		MetricsTypeConfig{
			Name:   Metric_Timing_HttpDuration,
			Labels: []string{Label_Path},
		},
	},
}
