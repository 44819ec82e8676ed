package metrics

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argoproj-labs/resourcelens/pkg/cache"
	"github.com/argoproj-labs/resourcelens/pkg/resources"
)

type fakeStatsSource struct {
	name  string
	stats map[resources.Domain]resources.ClientStats
}

func (f fakeStatsSource) Name() string {
	return f.name
}

func (f fakeStatsSource) Stats() map[resources.Domain]resources.ClientStats {
	return f.stats
}

const expectedCacheMetrics = `
# HELP resourcelens_cache_entries Number of entries held by the cache.
# TYPE resourcelens_cache_entries gauge
resourcelens_cache_entries{context="kind-dev",domain="workloads",store="items"} 4
resourcelens_cache_entries{context="kind-dev",domain="workloads",store="lists"} 1
# HELP resourcelens_cache_hits_total Number of reads served from the cache.
# TYPE resourcelens_cache_hits_total counter
resourcelens_cache_hits_total{context="kind-dev",domain="workloads",store="items"} 3
resourcelens_cache_hits_total{context="kind-dev",domain="workloads",store="lists"} 0
# HELP resourcelens_cache_hit_ratio Share of reads served from the cache.
# TYPE resourcelens_cache_hit_ratio gauge
resourcelens_cache_hit_ratio{context="kind-dev",domain="workloads",store="items"} 0.75
resourcelens_cache_hit_ratio{context="kind-dev",domain="workloads",store="lists"} 0
`

func TestCacheCollector(t *testing.T) {
	collector := NewCacheCollector()
	collector.Add(fakeStatsSource{
		name: "kind-dev",
		stats: map[resources.Domain]resources.ClientStats{
			resources.DomainWorkloads: {
				Items: cache.Stats{Hits: 3, Misses: 1, Evictions: 2, Size: 4},
				Lists: cache.Stats{Misses: 1, Size: 1},
			},
		},
	})

	err := testutil.CollectAndCompare(collector, strings.NewReader(expectedCacheMetrics),
		"resourcelens_cache_entries", "resourcelens_cache_hits_total", "resourcelens_cache_hit_ratio")
	require.NoError(t, err)
	assert.Equal(t, 10, testutil.CollectAndCount(collector))
}

func TestRetryMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewRetryMetrics(registry)

	observe := m.Observer("get Pod:default:web")
	observe(errors.New("connection reset"), 1, 100*time.Millisecond)
	observe(errors.New("connection reset"), 2, 200*time.Millisecond)
	m.Observer("list Pod:all:")(errors.New("timeout"), 1, time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retryCounter.WithLabelValues("get Pod:default:web")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retryCounter.WithLabelValues("list Pod:all:")))

	var out bytes.Buffer
	require.NoError(t, WriteText(&out, registry))
	assert.Contains(t, out.String(), `resourcelens_retries_total{operation="get Pod:default:web"} 2`)
	assert.Contains(t, out.String(), `resourcelens_retry_delay_seconds_count{operation="list Pod:all:"} 1`)
}
