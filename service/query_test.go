package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/rank"
)

func TestQueryKey(t *testing.T) {
	k := queryKey("space", map[string]float64{"runtime": 120, "year": 1999})
	assert.Len(t, k, 64)
	assert.Equal(t, k, queryKey("space", map[string]float64{"year": 1999, "runtime": 120}))
	assert.NotEqual(t, k, queryKey("space", map[string]float64{"runtime": 120}))
	assert.NotEqual(t, k, queryKey("space opera", map[string]float64{"runtime": 120, "year": 1999}))
	assert.Equal(t, queryKey("space", nil), queryKey("space", map[string]float64{}))

	// 文本中嵌入分隔字节不能伪造数值偏好
	assert.NotEqual(t,
		queryKey("space", map[string]float64{"runtime": 5}),
		queryKey("space\x00runtime\x015", nil))
	assert.NotEqual(t,
		queryKey("space", map[string]float64{"runtime": 5}),
		queryKey("space\x05\x01\x07runtime5", nil))
}

func TestQueryCacheMatchesFreshBuild(t *testing.T) {
	ctx := context.Background()
	cfg := movieConfig()
	cfg.Space.NumericColumns = []string{"pop"}
	r, err := New(ctx, movieCatalog(t), cfg)
	require.NoError(t, err)
	snap := r.Snapshot()

	reqs := []Request{
		{Text: "space", Numeric: map[string]float64{"pop": 5}},
		{Text: "space\x00pop\x015"},
		{Text: "space"},
	}
	for _, req := range reqs {
		got, err := r.query(snap, req)
		require.NoError(t, err)
		want, err := snap.Space.Query(req.Text, req.Numeric)
		require.NoError(t, err)
		assert.Equal(t, want.Dense(), got.Dense(), "text %q", req.Text)
	}
	assert.Equal(t, len(reqs), snap.queries.Len())
}

func TestQueryCache(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	r, err := New(ctx, movieCatalog(t), movieConfig(), WithMetrics(m))
	require.NoError(t, err)

	first, err := r.Recommend(ctx, Request{Text: "space", TopK: 2})
	require.NoError(t, err)
	second, err := r.Recommend(ctx, Request{Text: "space", TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, rank.IDs(first.Results), rank.IDs(second.Results))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryCacheTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueryCacheTotal.WithLabelValues("hit")))

	// 重建后缓存随快照一起替换
	require.NoError(t, r.Rebuild(ctx, movieCatalog(t)))
	_, err = r.Recommend(ctx, Request{Text: "space", TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueryCacheTotal.WithLabelValues("miss")))
}

func TestQueryCacheDisabled(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())
	cfg := movieConfig()
	cfg.Rank.QueryCache = 0
	r, err := New(ctx, movieCatalog(t), cfg, WithMetrics(m))
	require.NoError(t, err)
	assert.Nil(t, r.Snapshot().queries)

	_, err = r.Recommend(ctx, Request{Text: "space"})
	require.NoError(t, err)
	assert.Equal(t, 0, testutil.CollectAndCount(m.QueryCacheTotal))
}
