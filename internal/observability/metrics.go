package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache tier labels.
const (
	TierExact    = "exact"
	TierSemantic = "semantic"
)

// Metrics records cache, tool, and latency metrics. It is constructed against
// an explicit registerer and handed to components at startup; there is no
// process-global registry.
type Metrics struct {
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheWrites        *prometheus.CounterVec
	cacheUnavailable   *prometheus.CounterVec
	cacheInvalidations *prometheus.CounterVec
	toolUsage          *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
}

// NewMetrics creates the metric vectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits by tier and key prefix",
			},
			[]string{"tier", "prefix"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses by tier and key prefix",
			},
			[]string{"tier", "prefix"},
		),
		cacheWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_writes_total",
				Help: "Total number of cache writes by tier and key prefix",
			},
			[]string{"tier", "prefix"},
		),
		cacheUnavailable: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_unavailable_total",
				Help: "Total number of cache operations degraded by store connectivity",
			},
			[]string{"tier"},
		),
		cacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_invalidations_total",
				Help: "Total number of semantic-cache invalidation sweeps",
			},
			[]string{"source"},
		),
		toolUsage: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tool_usage_total",
				Help: "Total number of tool executions",
			},
			[]string{"tool"},
		),
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "request_latency_seconds",
				Help:    "Latency of pipeline stages",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}
}

// NopMetrics returns a metrics recorder backed by a throwaway registry.
// Handy for tests and tools that do not export metrics.
func NopMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// CacheHit records a hit on the given tier for a key prefix.
func (m *Metrics) CacheHit(tier, prefix string) {
	m.cacheHits.WithLabelValues(tier, prefix).Inc()
}

// CacheMiss records a miss on the given tier for a key prefix.
func (m *Metrics) CacheMiss(tier, prefix string) {
	m.cacheMisses.WithLabelValues(tier, prefix).Inc()
}

// CacheWrite records a write to the given tier for a key prefix.
func (m *Metrics) CacheWrite(tier, prefix string) {
	m.cacheWrites.WithLabelValues(tier, prefix).Inc()
}

// CacheUnavailable records a degraded cache operation on the given tier.
func (m *Metrics) CacheUnavailable(tier string) {
	m.cacheUnavailable.WithLabelValues(tier).Inc()
}

// CacheInvalidation records an invalidation sweep triggered by source.
func (m *Metrics) CacheInvalidation(source string) {
	m.cacheInvalidations.WithLabelValues(source).Inc()
}

// ToolUsed records one execution of the named tool.
func (m *Metrics) ToolUsed(tool string) {
	m.toolUsage.WithLabelValues(tool).Inc()
}

// ObserveStage records the latency of a pipeline stage.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.requestLatency.WithLabelValues(stage).Observe(d.Seconds())
}

// TimeStage returns a func that records the elapsed time for the stage when
// called; use with defer.
func (m *Metrics) TimeStage(stage string) func() {
	start := time.Now()
	return func() {
		m.ObserveStage(stage, time.Since(start))
	}
}
