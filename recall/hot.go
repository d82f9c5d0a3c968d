package recall

import (
	"context"
	"sort"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/pkg/utils"
)

// Hot 是热门召回源：按向量空间的热度降序返回全部物品，热度相同时行号小的在前，
// 热度缺失的物品排在最后。未配置热度列时等价于按行号升序。
//
// Hot 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用，通常作为 rerank.Backfill 的兜底来源。
type Hot struct{}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Hot) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Space == nil {
		return nil, nil
	}
	space := rctx.Space
	n := space.Len()

	type entry struct {
		index int
		pop   float64
		ok    bool
	}
	entries := make([]entry, n)
	for i := range entries {
		pop, ok := space.Popularity(i)
		entries[i] = entry{index: i, pop: pop, ok: ok}
	}
	sort.SliceStable(entries, func(a, b int) bool {
		ea, eb := entries[a], entries[b]
		if ea.ok != eb.ok {
			return ea.ok
		}
		return ea.ok && ea.pop > eb.pop
	})

	out := make([]*core.Item, n)
	for k, e := range entries {
		it := core.NewItem(space.ItemID(e.index), e.index)
		if e.ok {
			it.Score = e.pop
		}
		it.PutLabel(LabelSource, utils.Label{Value: SourcePopularity, Source: "recall"})
		out[k] = it
	}
	return out, nil
}
