package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics raccoglie le metriche Prometheus della pipeline
type Metrics struct {
	executionsTotal *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	tokensTotal     *prometheus.CounterVec
	duration        prometheus.Histogram
}

// NewMetrics crea e registra le metriche della pipeline
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "contentforge"
	}

	return &Metrics{
		executionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_executions_total",
				Help:      "Total number of pipeline executions by status",
			},
			[]string{"status"},
		),
		stageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_duration_seconds",
				Help:      "Stage duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),
		tokensTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_tokens_total",
				Help:      "Total tokens used by stage",
			},
			[]string{"stage"},
		),
		duration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_duration_seconds",
				Help:      "Total pipeline duration in seconds",
				Buckets:   []float64{5, 15, 30, 60, 120, 300, 600},
			},
		),
	}
}

// RecordSuccess registra un'esecuzione riuscita
func (m *Metrics) RecordSuccess(duration time.Duration) {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues("success").Inc()
	m.duration.Observe(duration.Seconds())
}

// RecordFailure registra un'esecuzione fallita
func (m *Metrics) RecordFailure() {
	if m == nil {
		return
	}
	m.executionsTotal.WithLabelValues("failure").Inc()
}

// RecordStage registra durata e token di uno stage
func (m *Metrics) RecordStage(stage string, duration time.Duration, tokens int) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	m.tokensTotal.WithLabelValues(stage).Add(float64(tokens))
}
