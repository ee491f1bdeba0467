package lsp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "hiveql_lsp"

// Metrics holds the server's prometheus collectors. A nil *Metrics records
// nothing.
type Metrics struct {
	CompletionsTotal   prometheus.Counter
	EmptyCompletions   prometheus.Counter
	CompletionDuration prometheus.Histogram
	CompletionItems    prometheus.Histogram
	HoversTotal        *prometheus.CounterVec
	OpenDocuments      prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CompletionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "completions_total",
			Help:      "Completion requests served",
		}),
		EmptyCompletions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "completions_empty_total",
			Help:      "Completion requests that produced no candidates",
		}),
		CompletionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "completion_duration_seconds",
			Help:      "Time to compute a completion list",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		CompletionItems: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "completion_items",
			Help:      "Candidates per completion list",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500},
		}),
		HoversTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "hovers_total",
			Help:      "Hover requests by what was found",
		}, []string{"kind"}),
		OpenDocuments: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "open_documents",
			Help:      "Documents currently open",
		}),
	}
}

func (m *Metrics) observeCompletion(items int, took time.Duration) {
	if m == nil {
		return
	}

	m.CompletionsTotal.Inc()
	m.CompletionDuration.Observe(took.Seconds())
	m.CompletionItems.Observe(float64(items))

	if items == 0 {
		m.EmptyCompletions.Inc()
	}
}

func (m *Metrics) observeHover(kind string) {
	if m == nil {
		return
	}

	m.HoversTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) setDocuments(n int) {
	if m == nil {
		return
	}

	m.OpenDocuments.Set(float64(n))
}
