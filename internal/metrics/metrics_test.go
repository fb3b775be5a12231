package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CacheLookup("fresh")
	m.CacheLookup("fresh")
	m.CacheLookup("miss")
	m.LoadMore(nil)
	m.LoadMore(errors.New("boom"))
	m.PrerenderRun(nil)
	m.ObserveContentRequest("query_page", nil, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("fresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadMore.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.loadMore.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.prerenderRuns.WithLabelValues("ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.contentRequests))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.CacheLookup("stale")
		m.LoadMore(nil)
		m.PrerenderRun(errors.New("x"))
		m.ObserveContentRequest("get_by_uid", nil, time.Second)
	})
}
