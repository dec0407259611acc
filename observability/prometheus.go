package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusFactory is a MetricFactory backed by Prometheus collectors.
// Dotted metric names become underscored, a leading namespace segment is
// dropped, and counters gain a "_total" suffix.
type PrometheusFactory struct {
	factory   promauto.Factory
	namespace string

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

var _ MetricFactory = (*PrometheusFactory)(nil)

// NewPrometheusFactory registers collectors with reg under namespace. A nil
// reg uses prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer, namespace string) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		factory:    promauto.With(reg),
		namespace:  namespace,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter implements MetricFactory. Asking twice for the same name returns
// the same collector.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := f.factory.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Name:      f.metricName(name) + "_total",
		Help:      "Count of " + name,
	})
	f.counters[name] = c
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := f.factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: f.namespace,
		Name:      f.metricName(name),
		Help:      "Distribution of " + name,
		Buckets:   prometheus.ExponentialBuckets(1, 10, 12),
	})
	f.histograms[name] = h
	return h
}

var nameReplacer = strings.NewReplacer(".", "_", "-", "_", " ", "_")

func (f *PrometheusFactory) metricName(name string) string {
	if f.namespace != "" {
		name = strings.TrimPrefix(name, f.namespace+".")
	}
	return nameReplacer.Replace(name)
}
