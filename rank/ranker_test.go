package rank

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/feature"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pkg/sparse"
	"github.com/rushteam/contentkit/recall"
	"github.com/rushteam/contentkit/store"
)

func buildSpace(t *testing.T, columns []string, rows [][]any) *feature.VectorSpace {
	t.Helper()
	cat, err := catalog.New(columns, rows)
	require.NoError(t, err)
	space, err := feature.BuildSpace(cat, feature.SpaceConfig{
		TextColumns:      []string{"overview"},
		IDColumn:         "id",
		DisplayColumn:    "title",
		PopularityColumn: "pop",
	})
	require.NoError(t, err)
	return space
}

func movieSpace(t *testing.T) *feature.VectorSpace {
	return buildSpace(t, []string{"id", "title", "overview", "pop", "lang"}, [][]any{
		{"a", "A", "space adventure", 10.0, "en"},
		{"b", "B", "space opera", 50.0, "fr"},
		{"c", "C", "romance drama", 5.0, "en"},
	})
}

func query(t *testing.T, space *feature.VectorSpace, text string) sparse.Vector {
	t.Helper()
	q, err := space.Query(text, nil)
	require.NoError(t, err)
	return q
}

func TestRankWorkedExamples(t *testing.T) {
	ctx := context.Background()
	space := movieSpace(t)
	q := query(t, space, "space")
	r := NewRanker(nil)

	cases := []struct {
		name    string
		topK    int
		exclude []string
		want    []string
	}{
		{name: "tie broken by index", topK: 2, want: []string{"a", "b"}},
		{name: "exclusion shortens result", topK: 3, exclude: []string{"a"}, want: []string{"b", "c"}},
		{name: "topK larger than catalog", topK: 10, want: []string{"a", "b", "c"}},
		{name: "zero topK", topK: 0, want: []string{}},
		{name: "all excluded", topK: 3, exclude: []string{"a", "b", "c"}, want: []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := r.Rank(ctx, space, q, tc.topK, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, IDs(results))
		})
	}
}

func TestRankResultFields(t *testing.T) {
	space := movieSpace(t)
	results, err := NewRanker(nil).Rank(context.Background(), space, query(t, space, "romance"), 1, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c", results[0].ID)
	assert.Equal(t, "C", results[0].Title)
	assert.Equal(t, 2, results[0].Index)
	assert.Equal(t, recall.SourceContent, results[0].Source)
	assert.InDelta(t, 1/1.4142135623730951, results[0].Score, 1e-9)
	assert.Equal(t, []string{"C"}, Titles(results))
}

func TestRankBackfillWithMinSimilarity(t *testing.T) {
	space := movieSpace(t)
	r := NewRanker(DefaultPipeline(0.1))

	results, err := r.Rank(context.Background(), space, query(t, space, "space"), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, IDs(results))
	assert.Equal(t, recall.SourceContent, results[0].Source)
	assert.Equal(t, recall.SourceContent, results[1].Source)
	assert.Equal(t, recall.SourcePopularity, results[2].Source)
}

func TestRankPopularityFallbackOrder(t *testing.T) {
	space := buildSpace(t, []string{"id", "title", "overview", "pop"}, [][]any{
		{"w", "W", "western", 5.0},
		{"x", "X", "thriller", 9.0},
		{"y", "Y", "musical", 5.0},
		{"z", "Z", "documentary", nil},
	})
	r := NewRanker(DefaultPipeline(0.5))
	q := query(t, space, "nothing matches")

	results, err := r.Rank(context.Background(), space, q, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "w", "y", "z"}, IDs(results))
	for _, res := range results {
		assert.Equal(t, recall.SourcePopularity, res.Source)
	}

	results, err = r.Rank(context.Background(), space, q, 4, []string{"x", "w"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "z"}, IDs(results))
}

func TestRankStableTies(t *testing.T) {
	space := buildSpace(t, []string{"id", "title", "overview", "pop"}, [][]any{
		{"p", "P", "heist crew", 1.0},
		{"q", "Q", "heist crew", 100.0},
		{"r", "R", "heist crew", 50.0},
	})
	results, err := NewRanker(nil).Rank(context.Background(), space, query(t, space, "heist"), 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "q", "r"}, IDs(results))
}

func TestRankExclusionAndCompleteness(t *testing.T) {
	space := movieSpace(t)
	ids := []string{"a", "b", "c"}
	excludes := [][]string{nil, {"a"}, {"b"}, {"c"}, {"a", "c"}, {"a", "b", "c"}, {"unknown"}}

	for _, minSim := range []float64{0, 0.5, 0.99} {
		r := NewRanker(DefaultPipeline(minSim))
		for _, text := range []string{"space", "drama", "opera space", "", "nothing"} {
			q := query(t, space, text)
			for topK := 0; topK <= 4; topK++ {
				for _, excl := range excludes {
					name := fmt.Sprintf("min=%v/%q/k=%d/excl=%v", minSim, text, topK, excl)
					results, err := r.Rank(context.Background(), space, q, topK, excl)
					require.NoError(t, err, name)

					excluded := map[string]bool{}
					for _, id := range excl {
						excluded[id] = true
					}
					avail := 0
					for _, id := range ids {
						if !excluded[id] {
							avail++
						}
					}
					assert.Len(t, results, min(topK, avail), name)

					seen := map[string]bool{}
					for _, res := range results {
						assert.False(t, excluded[res.ID], name)
						assert.False(t, seen[res.ID], name)
						seen[res.ID] = true
					}
				}
			}
		}
	}
}

func TestRankEmptyCatalog(t *testing.T) {
	space := buildSpace(t, []string{"id", "title", "overview", "pop"}, nil)
	results, err := NewRanker(nil).Rank(context.Background(), space, query(t, space, "space"), 5, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankDimensionMismatch(t *testing.T) {
	space := movieSpace(t)
	_, err := NewRanker(nil).Rank(context.Background(), space, sparse.Vector{Dim: space.Dim() + 1}, 2, nil)
	assert.True(t, core.IsDimensionMismatch(err))
}

func TestRankFiltersApplyToBackfill(t *testing.T) {
	space := movieSpace(t)
	onlyEnglish, err := filter.NewExprFilter(`item.meta.lang == "en"`)
	require.NoError(t, err)

	r := NewRanker(DefaultPipeline(0.1, onlyEnglish, filter.NewBlacklistFilter([]string{"c"})))
	results, err := r.Rank(context.Background(), space, query(t, space, "opera"), 3, nil)
	require.NoError(t, err)
	// b 是唯一命中的，但被表达式过滤；c 在黑名单
	assert.Equal(t, []string{"a"}, IDs(results))
	assert.Equal(t, recall.SourcePopularity, results[0].Source)
}

func TestRankExposedHistory(t *testing.T) {
	ctx := context.Background()
	space := movieSpace(t)
	history := store.NewMemoryStore()
	require.NoError(t, history.MarkSeen(ctx, "u1", "a"))

	r := NewRanker(DefaultPipeline(0, filter.NewExposedFilter(history, 0)))
	rctx := &core.RecommendContext{
		UserID: "u1",
		Space:  space,
		Query:  query(t, space, "space"),
		TopK:   3,
	}
	results, err := r.RankContext(ctx, rctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, IDs(results))

	rctx2 := &core.RecommendContext{Space: space, Query: query(t, space, "space"), TopK: 3}
	results, err = r.RankContext(ctx, rctx2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, IDs(results))
}
