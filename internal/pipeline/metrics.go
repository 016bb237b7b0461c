package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	uploads *prometheus.CounterVec
	chunks  prometheus.Histogram
	emails  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		uploads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "summariq_uploads_total",
			Help: "Processed uploads by outcome.",
		}, []string{"outcome"}),
		chunks: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "summariq_upload_chunks",
			Help:    "Number of chunks per successfully extracted upload.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		emails: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "summariq_summary_emails_total",
			Help: "Summary email requests by outcome.",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) upload(err error) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcomeLabel(err)).Inc()
}

func (m *Metrics) chunkCount(n int) {
	if m == nil {
		return
	}
	m.chunks.Observe(float64(n))
}

func (m *Metrics) email(err error) {
	if m == nil {
		return
	}
	m.emails.WithLabelValues(outcomeLabel(err)).Inc()
}
