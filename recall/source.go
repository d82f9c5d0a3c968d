package recall

import (
	"context"

	"github.com/rushteam/contentkit/core"
)

// Source 表示一个可复用的召回源（内容相似度/热门/...）。
// 召回源从 rctx.Space 读取向量空间快照，返回按优先级排好序的候选。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// LabelSource 是记录候选来源的 Label key。
const LabelSource = "recall_source"

// 候选来源取值
const (
	SourceContent    = "content"
	SourcePopularity = "popularity"
)
