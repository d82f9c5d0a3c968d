package filter

import (
	"context"

	"github.com/rushteam/contentkit/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉配置中列出的物品（例如下架内容）。
// Prepare 会把黑名单并入 rctx.Exclude，兜底阶段同样不会返回这些物品。
type BlacklistFilter struct {
	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string) *BlacklistFilter {
	ids := make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) Prepare(_ context.Context, rctx *core.RecommendContext) error {
	for id := range f.ids {
		rctx.AddExclude(id)
	}
	return nil
}

func (f *BlacklistFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := f.ids[item.ID]
	return ok, nil
}
