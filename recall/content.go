package recall

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/pkg/sparse"
	"github.com/rushteam/contentkit/pkg/utils"
)

// Content 是基于内容的召回源：计算 rctx.Query 与向量空间每一行的余弦相似度，
// 按相似度降序返回全部物品，相似度相同时行号小的在前。
//
// Content 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Content struct {
	// MinSimilarity > 0 时丢弃相似度低于该值的物品，由兜底补齐
	MinSimilarity float64
}

func (r *Content) Name() string        { return "recall.content" }
func (r *Content) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Content) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Content) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Space == nil || rctx.Space.Len() == 0 {
		return nil, nil
	}
	scores, err := rctx.Space.Similarities(rctx.Query)
	if err != nil {
		if errors.Is(err, sparse.ErrDimensionMismatch) || core.IsDimensionMismatch(err) {
			return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeDimensionMismatch,
				fmt.Sprintf("recall.content: %v", err))
		}
		return nil, err
	}

	order := make([]int, 0, len(scores))
	for i, s := range scores {
		if r.MinSimilarity > 0 && s < r.MinSimilarity {
			continue
		}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	out := make([]*core.Item, len(order))
	for k, i := range order {
		it := core.NewItem(rctx.Space.ItemID(i), i)
		it.Score = scores[i]
		it.PutLabel(LabelSource, utils.Label{Value: SourceContent, Source: "recall"})
		out[k] = it
	}
	return out, nil
}
