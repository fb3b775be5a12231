package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "spacetraveling"

// Metrics groups the collectors shared by the blog components. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	contentRequests *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
	loadMore        *prometheus.CounterVec
	prerenderRuns   *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		contentRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "content_request_duration_seconds",
			Help:      "Duration of content API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Render cache lookups by result.",
		}, []string{"result"}),
		loadMore: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_more_total",
			Help:      "Listing load-more calls by outcome.",
		}, []string{"outcome"}),
		prerenderRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prerender_runs_total",
			Help:      "Prerender runs by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.contentRequests, m.cacheLookups, m.loadMore, m.prerenderRuns)

	return m
}

func (m *Metrics) ObserveContentRequest(operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.contentRequests.WithLabelValues(operation, outcome(err)).Observe(d.Seconds())
}

// CacheLookup records a cache result: fresh, stale or miss.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) LoadMore(err error) {
	if m == nil {
		return
	}
	m.loadMore.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) PrerenderRun(err error) {
	if m == nil {
		return
	}
	m.prerenderRuns.WithLabelValues(outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
