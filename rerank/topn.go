package rerank

import (
	"context"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，保留输入顺序的前 N 个物品。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Content{},                                        // 相似度召回
//	        &filter.FilterNode{Filters: []filter.Filter{...}},        // 排除
//	        &rerank.TopNNode{},                                       // 截取 rctx.TopK
//	        &rerank.Backfill{Source: &recall.Hot{}},                  // 热门兜底
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量
	// 如果 N <= 0，使用 rctx.TopK；二者都 <= 0 时不截断
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := resolveN(n.N, rctx)
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}

func resolveN(n int, rctx *core.RecommendContext) int {
	if n > 0 {
		return n
	}
	if rctx != nil {
		return rctx.TopK
	}
	return 0
}
