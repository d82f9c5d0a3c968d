package filter

import (
	"context"
	"slices"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/pkg/utils"
)

// LabelDegraded 是请求级 Label：值为出错的过滤器名称，调用方可据此打日志/监控。
const LabelDegraded = "degraded"

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
// 保留的物品维持输入顺序。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	Prepare(ctx, rctx, n.Filters)

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if ok, reason := Keep(ctx, rctx, n.Filters, item); !ok {
			// 记录过滤原因（用于调试/观测）
			item.PutLabel("filtered", utils.Label{Value: "true", Source: reason})
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func markDegraded(rctx *core.RecommendContext, name string) {
	if rctx == nil {
		return
	}
	if lbl, ok := rctx.GetLabel(LabelDegraded); ok && slices.Contains(lbl.Values(), name) {
		return
	}
	rctx.PutLabel(LabelDegraded, utils.Label{Value: name, Source: "filter"})
}
