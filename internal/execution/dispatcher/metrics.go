package dispatcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the dispatcher's Prometheus collectors.
type Metrics struct {
	Executions *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	GateWait   prometheus.Histogram
	Queued     prometheus.Gauge
	Running    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// creates unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "paracore",
				Name:      "executions_total",
				Help:      "Script executions by final state",
			},
			[]string{"state", "read_only"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "paracore",
				Name:      "execution_duration_seconds",
				Help:      "Time from gate acquisition to result",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
			},
			[]string{"state"},
		),
		GateWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "paracore",
				Name:      "execution_gate_wait_seconds",
				Help:      "Time spent queued for the execution gate",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
			},
		),
		Queued: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paracore",
				Name:      "executions_queued",
				Help:      "Executions waiting for the gate",
			},
		),
		Running: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "paracore",
				Name:      "executions_running",
				Help:      "Executions holding the gate",
			},
		),
	}
}
