package rerank

import (
	"context"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/recall"
)

// Backfill 是兜底补齐节点：输入不足 N 个时，从 Source 的候选中按顺序补齐，
// 跳过已选中的物品、rctx.Exclude 中的物品以及 Filters 拦截的物品。
// 补齐的物品追加在输入之后，不改变输入顺序。
type Backfill struct {
	// Source 兜底来源，为空时使用 recall.Hot
	Source recall.Source

	// Filters 对兜底候选同样生效的过滤器
	Filters []filter.Filter

	// N 期望数量，<= 0 时使用 rctx.TopK
	N int
}

func (n *Backfill) Name() string {
	return "rerank.backfill"
}

func (n *Backfill) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Backfill) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	want := resolveN(n.N, rctx)
	if want <= 0 || len(items) >= want {
		return items, nil
	}

	src := n.Source
	if src == nil {
		src = &recall.Hot{}
	}
	candidates, err := src.Recall(ctx, rctx)
	if err != nil {
		return nil, err
	}

	chosen := make(map[int]struct{}, want)
	for _, it := range items {
		chosen[it.Index] = struct{}{}
	}
	filter.Prepare(ctx, rctx, n.Filters)

	out := make([]*core.Item, len(items), want)
	copy(out, items)
	for _, it := range candidates {
		if len(out) >= want {
			break
		}
		if _, dup := chosen[it.Index]; dup {
			continue
		}
		if rctx.Excluded(it.ID) {
			continue
		}
		if ok, _ := filter.Keep(ctx, rctx, n.Filters, it); !ok {
			continue
		}
		chosen[it.Index] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}
