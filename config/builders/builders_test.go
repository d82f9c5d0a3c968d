package builders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/config"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/recall"
	"github.com/rushteam/contentkit/rerank"
	"github.com/rushteam/contentkit/store"
)

func TestDefaultFactoryTypes(t *testing.T) {
	assert.Equal(t,
		[]string{"filter", "recall.content", "recall.hot", "rerank.backfill", "rerank.topn"},
		config.DefaultFactory().Types())
}

func TestBuildFromYAML(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  name: content
  nodes:
    - type: recall.content
      config:
        min_similarity: 0.1
    - type: filter
      config:
        filters:
          - type: exclude
          - type: blacklist
            item_ids: ["m1", 42]
          - type: exposed
            window: 720h
          - type: expr
            expr: 'item.score > 0.2'
    - type: rerank.topn
      config:
        n: 5
    - type: rerank.backfill
      config:
        source: hot
        filters:
          - type: exclude
`))
	require.NoError(t, err)
	require.NoError(t, config.ValidatePipelineConfig(cfg))

	history := store.NewMemoryStore()
	p, err := cfg.BuildPipeline(config.DefaultFactory(), pipeline.Deps{History: history})
	require.NoError(t, err)
	assert.Equal(t, []string{"recall.content", "filter.node", "rerank.topn", "rerank.backfill"}, p.Names())

	content := p.Nodes[0].(*recall.Content)
	assert.InDelta(t, 0.1, content.MinSimilarity, 1e-12)

	fn := p.Nodes[1].(*filter.FilterNode)
	require.Len(t, fn.Filters, 4)
	exposed := fn.Filters[2].(*filter.ExposedFilter)
	assert.Equal(t, 720*time.Hour, exposed.Window)
	assert.Same(t, history, exposed.Store)
	assert.Equal(t, "item.score > 0.2", fn.Filters[3].(*filter.ExprFilter).Expr())

	assert.Equal(t, 5, p.Nodes[2].(*rerank.TopNNode).N)

	bf := p.Nodes[3].(*rerank.Backfill)
	assert.IsType(t, &recall.Hot{}, bf.Source)
	assert.Len(t, bf.Filters, 1)
}

func TestBuildErrors(t *testing.T) {
	cases := []struct {
		name    string
		build   func() error
		message string
	}{
		{
			name: "min_similarity out of range",
			build: func() error {
				_, err := BuildContentNode(map[string]any{"min_similarity": 1.5}, pipeline.Deps{})
				return err
			},
			message: "min_similarity",
		},
		{
			name: "empty filter node",
			build: func() error {
				_, err := BuildFilterNode(map[string]any{}, pipeline.Deps{})
				return err
			},
			message: "filters",
		},
		{
			name: "bad exposed window",
			build: func() error {
				_, err := BuildFilters([]map[string]any{{"type": "exposed", "window": "a month"}}, pipeline.Deps{})
				return err
			},
			message: "exposed window",
		},
		{
			name: "expr missing",
			build: func() error {
				_, err := BuildFilters([]map[string]any{{"type": "expr"}}, pipeline.Deps{})
				return err
			},
			message: "requires expr",
		},
		{
			name: "expr does not compile",
			build: func() error {
				_, err := BuildFilters([]map[string]any{{"type": "expr", "expr": "item.score +"}}, pipeline.Deps{})
				return err
			},
			message: "expr filter",
		},
		{
			name: "unknown filter",
			build: func() error {
				_, err := BuildFilters([]map[string]any{{"type": "bloom"}}, pipeline.Deps{})
				return err
			},
			message: "unknown filter type: bloom",
		},
		{
			name: "unknown backfill source",
			build: func() error {
				_, err := BuildBackfillNode(map[string]any{"source": "rpc"}, pipeline.Deps{})
				return err
			},
			message: "backfill source",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestBlacklistIDs(t *testing.T) {
	filters, err := BuildFilters([]map[string]any{
		{"type": "blacklist", "item_ids": []any{"m1", float64(42)}},
	}, pipeline.Deps{})
	require.NoError(t, err)
	require.Len(t, filters, 1)

	rctx := &core.RecommendContext{}
	filter.Prepare(t.Context(), rctx, filters)
	assert.True(t, rctx.Excluded("m1"))
	assert.True(t, rctx.Excluded("42"))
}

func TestValidatePipelineConfig(t *testing.T) {
	cfg, err := pipeline.ParseYAML([]byte(`
pipeline:
  nodes:
    - type: recall.content
    - type: rank.dnn
    - config:
        n: 3
`))
	require.NoError(t, err)
	err = config.ValidatePipelineConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `#1 "rank.dnn"`)
	assert.Contains(t, err.Error(), "#2 <missing type>")
	assert.Contains(t, err.Error(), "recall.hot")

	assert.NoError(t, config.ValidatePipelineConfig(nil))
}
