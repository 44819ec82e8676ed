package metrics

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/argoproj-labs/resourcelens/pkg/cache"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
	"github.com/argoproj-labs/resourcelens/pkg/retry"
)

// Follow Prometheus naming practices
// https://prometheus.io/docs/practices/naming/
var (
	descCacheDefaultLabels = []string{"context", "domain", "store"}

	descCacheHits = prometheus.NewDesc(
		"resourcelens_cache_hits_total",
		"Number of reads served from the cache.",
		descCacheDefaultLabels,
		nil,
	)
	descCacheMisses = prometheus.NewDesc(
		"resourcelens_cache_misses_total",
		"Number of reads not found in the cache or expired.",
		descCacheDefaultLabels,
		nil,
	)
	descCacheEvictions = prometheus.NewDesc(
		"resourcelens_cache_evictions_total",
		"Number of entries evicted because the cache was full.",
		descCacheDefaultLabels,
		nil,
	)
	descCacheEntries = prometheus.NewDesc(
		"resourcelens_cache_entries",
		"Number of entries held by the cache.",
		descCacheDefaultLabels,
		nil,
	)
	descCacheHitRatio = prometheus.NewDesc(
		"resourcelens_cache_hit_ratio",
		"Share of reads served from the cache.",
		descCacheDefaultLabels,
		nil,
	)
)

// HasCacheStats is implemented by resources.Manager.
type HasCacheStats interface {
	Name() string
	Stats() map[resources.Domain]resources.ClientStats
}

type cacheCollector struct {
	lock    sync.Mutex
	sources []HasCacheStats
}

// NewCacheCollector returns a collector reporting the cache statistics of sources at
// scrape time.
func NewCacheCollector(sources ...HasCacheStats) *cacheCollector {
	return &cacheCollector{sources: sources}
}

// Add starts reporting the statistics of source.
func (c *cacheCollector) Add(source HasCacheStats) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sources = append(c.sources, source)
}

// Describe implements the prometheus.Collector interface
func (c *cacheCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descCacheHits
	ch <- descCacheMisses
	ch <- descCacheEvictions
	ch <- descCacheEntries
	ch <- descCacheHitRatio
}

// Collect implements the prometheus.Collector interface
func (c *cacheCollector) Collect(ch chan<- prometheus.Metric) {
	c.lock.Lock()
	sources := append([]HasCacheStats(nil), c.sources...)
	c.lock.Unlock()

	for _, source := range sources {
		name := source.Name()
		for domain, stats := range source.Stats() {
			collectStore(ch, stats.Items, name, string(domain), "items")
			collectStore(ch, stats.Lists, name, string(domain), "lists")
		}
	}
}

func collectStore(ch chan<- prometheus.Metric, stats cache.Stats, labels ...string) {
	ch <- prometheus.MustNewConstMetric(descCacheHits, prometheus.CounterValue, float64(stats.Hits), labels...)
	ch <- prometheus.MustNewConstMetric(descCacheMisses, prometheus.CounterValue, float64(stats.Misses), labels...)
	ch <- prometheus.MustNewConstMetric(descCacheEvictions, prometheus.CounterValue, float64(stats.Evictions), labels...)
	ch <- prometheus.MustNewConstMetric(descCacheEntries, prometheus.GaugeValue, float64(stats.Size), labels...)
	ch <- prometheus.MustNewConstMetric(descCacheHitRatio, prometheus.GaugeValue, stats.HitRate(), labels...)
}

// RetryMetrics counts retries of gateway calls.
type RetryMetrics struct {
	retryCounter   *prometheus.CounterVec
	retryHistogram *prometheus.HistogramVec
}

func NewRetryMetrics(registerer prometheus.Registerer) *RetryMetrics {
	m := &RetryMetrics{
		retryCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "resourcelens_retries_total",
				Help: "Number of retries after a transient failure.",
			},
			[]string{"operation"},
		),
		retryHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "resourcelens_retry_delay_seconds",
				Help:    "Delay waited before a retry.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"operation"},
		),
	}
	registerer.MustRegister(m.retryCounter, m.retryHistogram)
	return m
}

// Observer returns an OnRetry hook recording retries of operation.
func (m *RetryMetrics) Observer(operation string) retry.OnRetryFunc {
	return func(_ error, _ int, delay time.Duration) {
		m.retryCounter.WithLabelValues(operation).Inc()
		m.retryHistogram.WithLabelValues(operation).Observe(delay.Seconds())
	}
}

// WriteText writes the metrics gathered from gatherer in the Prometheus text format.
func WriteText(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", family.GetName(), err)
		}
	}
	return nil
}
