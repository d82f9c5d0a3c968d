// Package rank 把召回、过滤、截断与兜底组合成一次完整的排序。
package rank

import (
	"context"
	"fmt"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/pkg/sparse"
	"github.com/rushteam/contentkit/recall"
	"github.com/rushteam/contentkit/rerank"
)

// Result 是一条推荐结果。
type Result struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`  // content 为余弦相似度，popularity 为热度
	Source string  `json:"source"` // content / popularity
}

// DefaultPipeline 返回默认排序链路：
//
//	recall.content -> filter(exclude + filters) -> rerank.topn -> rerank.backfill(recall.hot, 同样的 filters)
//
// minSimilarity > 0 时，相似度低于该值的物品不进入相似度段，由热门兜底补齐。
func DefaultPipeline(minSimilarity float64, filters ...filter.Filter) *pipeline.Pipeline {
	all := append([]filter.Filter{filter.NewExcludeFilter()}, filters...)
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Content{MinSimilarity: minSimilarity},
		&filter.FilterNode{Filters: all},
		&rerank.TopNNode{},
		&rerank.Backfill{Source: &recall.Hot{}, Filters: all},
	}}
}

// Ranker 在一个向量空间快照上执行排序链路。Ranker 自身无状态，可并发使用。
type Ranker struct {
	pipeline *pipeline.Pipeline
}

// NewRanker 使用给定链路创建 Ranker，p 为 nil 时使用 DefaultPipeline(0)。
func NewRanker(p *pipeline.Pipeline) *Ranker {
	if p == nil {
		p = DefaultPipeline(0)
	}
	return &Ranker{pipeline: p}
}

// Pipeline 返回使用的链路。
func (r *Ranker) Pipeline() *pipeline.Pipeline { return r.pipeline }

// Rank 按与 query 的余弦相似度排序 space 中的物品，返回至多 topK 条结果：
//   - 相似度降序，相同相似度按行号升序
//   - excludeIDs 中的物品不会出现在结果中（包括兜底部分）
//   - 不足 topK 时按热度降序补齐，热度相同按行号升序
//
// 空 catalog、全部被排除或 topK <= 0 时返回空结果而非错误。
// query 与 space 维度不一致时返回 DIMENSION_MISMATCH。
func (r *Ranker) Rank(
	ctx context.Context,
	space core.ItemSpace,
	query sparse.Vector,
	topK int,
	excludeIDs []string,
) ([]Result, error) {
	rctx := &core.RecommendContext{
		Space: space,
		Query: query,
		TopK:  topK,
	}
	rctx.AddExclude(excludeIDs...)
	return r.RankContext(ctx, rctx)
}

// RankContext 与 Rank 相同，但由调用方提供完整的请求上下文（UserID、Params 等）。
func (r *Ranker) RankContext(ctx context.Context, rctx *core.RecommendContext) ([]Result, error) {
	if rctx == nil || rctx.Space == nil || rctx.Space.Len() == 0 || rctx.TopK <= 0 {
		return []Result{}, nil
	}
	if rctx.Query.Dim != rctx.Space.Dim() {
		return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("rank: query dim %d, space dim %d", rctx.Query.Dim, rctx.Space.Dim()))
	}

	items, err := r.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	return collect(rctx, items), nil
}

// collect 把链路输出转为结果，并保证去重、排除与数量上限。
func collect(rctx *core.RecommendContext, items []*core.Item) []Result {
	out := make([]Result, 0, min(rctx.TopK, len(items)))
	seen := make(map[int]struct{}, len(items))
	for _, it := range items {
		if len(out) >= rctx.TopK {
			break
		}
		if it == nil || rctx.Excluded(it.ID) {
			continue
		}
		if _, dup := seen[it.Index]; dup {
			continue
		}
		seen[it.Index] = struct{}{}
		out = append(out, Result{
			ID:     it.ID,
			Title:  rctx.Space.Display(it.Index),
			Index:  it.Index,
			Score:  it.Score,
			Source: it.Label(recall.LabelSource),
		})
	}
	return out
}

// IDs 返回结果中的标识。
func IDs(results []Result) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

// Titles 返回结果中的展示标题。
func Titles(results []Result) []string {
	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.Title
	}
	return titles
}
