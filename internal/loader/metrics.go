package loader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess    = "success"
	resultFailure    = "failure"
	resultSuperseded = "superseded"
)

type Metrics struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
	products prometheus.Gauge
}

// NewMetrics registers the loader collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		loads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stats_loader_loads_total",
			Help: "Loads by result.",
		}, []string{"result"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stats_loader_load_duration_seconds",
			Help:    "Duration of a load from request to surface write.",
			Buckets: prometheus.DefBuckets,
		}),
		products: f.NewGauge(prometheus.GaugeOpts{
			Name: "stats_loader_products_rendered",
			Help: "Products rendered by the last successful load.",
		}),
	}
}

func (m *Metrics) observe(result string, elapsed time.Duration, products int) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
	if result == resultSuccess {
		m.products.Set(float64(products))
	}
}
