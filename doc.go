// Package contentkit 是一个基于内容的混合推荐工具包。
//
// 设计要点：
// - Snapshot-first: 文本列与结构化列合并后做 TF-IDF，数值列缩放后拼接，得到不可变的向量空间快照
// - Pipeline-first: 排序通过 Node 串联（Recall → Filter → ReRank），热门兜底也是一个 Node
// - Labels-first: 召回来源、过滤原因、降级信息以 Label 形式透传，便于解释与观测
package contentkit

import (
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/rank"
)

// 轻量 facade：便于直接 import "contentkit" 使用核心抽象。
type (
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind
	Result   = rank.Result
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)
