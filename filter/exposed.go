package filter

import (
	"context"
	"time"

	"github.com/rushteam/contentkit/core"
)

// ExposedFilter 是已看过过滤器，过滤掉用户浏览历史中的物品。
// Prepare 按请求读取一次历史并并入 rctx.Exclude，之后的判断与兜底都基于该集合。
type ExposedFilter struct {
	// Store 用于读取用户浏览历史
	Store core.HistoryStore

	// Window 是历史时间窗口，<= 0 表示不限时间
	Window time.Duration
}

// NewExposedFilter 创建一个已看过过滤器。
func NewExposedFilter(store core.HistoryStore, window time.Duration) *ExposedFilter {
	return &ExposedFilter{Store: store, Window: window}
}

func (f *ExposedFilter) Name() string {
	return "filter.exposed"
}

// PrepareKey 由存储与时间窗口决定，窗口不同的两个过滤器各自读取历史。
func (f *ExposedFilter) PrepareKey() string {
	name := ""
	if f.Store != nil {
		name = f.Store.Name()
	}
	return "filter.exposed/" + name + "/" + f.Window.String()
}

func (f *ExposedFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) error {
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil
	}
	ids, err := f.Store.Seen(ctx, rctx.UserID, f.Window)
	if err != nil {
		return err
	}
	rctx.AddExclude(ids...)
	return nil
}

func (f *ExposedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx.Excluded(item.ID), nil
}
