package core

import (
	"github.com/rushteam/contentkit/pkg/sparse"
	"github.com/rushteam/contentkit/pkg/utils"
)

// RecommendContext 承载一次请求的查询向量、排除集合与向量空间快照，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// Space 是本次请求读取的向量空间快照，请求期间不会变化
	Space ItemSpace

	// Query 是与 Space 列布局一致的查询向量
	Query sparse.Vector

	// TopK 是期望返回的数量，Node 未显式配置 N 时使用
	TopK int

	// Exclude 是不得出现在结果中的物品标识（包括兜底部分）
	Exclude map[string]struct{}

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 query 原文、数值属性
	Params map[string]any

	// prepared 记录本次请求已完成的过滤器准备工作
	prepared map[string]struct{}
}

// Excluded 判断物品是否在排除集合中。
func (rctx *RecommendContext) Excluded(id string) bool {
	if rctx == nil || rctx.Exclude == nil {
		return false
	}
	_, ok := rctx.Exclude[id]
	return ok
}

// AddExclude 把 ids 并入排除集合。
func (rctx *RecommendContext) AddExclude(ids ...string) {
	if len(ids) == 0 {
		return
	}
	if rctx.Exclude == nil {
		rctx.Exclude = make(map[string]struct{}, len(ids))
	}
	for _, id := range ids {
		rctx.Exclude[id] = struct{}{}
	}
}

// Prepared 判断 key 对应的准备工作在本次请求中是否已完成。
func (rctx *RecommendContext) Prepared(key string) bool {
	if rctx == nil || rctx.prepared == nil {
		return false
	}
	_, ok := rctx.prepared[key]
	return ok
}

// MarkPrepared 记录 key 对应的准备工作已完成。
func (rctx *RecommendContext) MarkPrepared(key string) {
	if rctx.prepared == nil {
		rctx.prepared = make(map[string]struct{})
	}
	rctx.prepared[key] = struct{}{}
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
