package filter

import (
	"context"

	"github.com/rushteam/contentkit/core"
)

// ExcludeFilter 过滤掉 rctx.Exclude 中的物品（调用方传入的排除集合，以及各 Preparer 并入的标识）。
type ExcludeFilter struct{}

func NewExcludeFilter() *ExcludeFilter { return &ExcludeFilter{} }

func (f *ExcludeFilter) Name() string { return "filter.exclude" }

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.Excluded(item.ID), nil
}
