package filter

import (
	"context"

	"github.com/rushteam/contentkit/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Preparer 是可选接口：在逐个判断之前按请求准备一次数据。
// 通常把需要排除的标识并入 rctx.Exclude，这样兜底阶段也会遵守同样的排除规则。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) error
}

// KeyedPreparer 是带去重键的 Preparer。同一请求内键相同的准备工作只成功执行一次，
// filter 节点与兜底节点因此不会重复读取外部存储。
type KeyedPreparer interface {
	Preparer
	PrepareKey() string
}

// Prepare 依次调用 filters 中实现了 Preparer 的过滤器。
// 出错的过滤器被跳过，并在 rctx 上记录 degraded 标签，不中断流程；失败的准备不记为完成。
func Prepare(ctx context.Context, rctx *core.RecommendContext, filters []Filter) {
	for _, f := range filters {
		p, ok := f.(Preparer)
		if !ok {
			continue
		}
		var key string
		if kp, ok := p.(KeyedPreparer); ok && rctx != nil {
			key = kp.PrepareKey()
			if rctx.Prepared(key) {
				continue
			}
		}
		if err := p.Prepare(ctx, rctx); err != nil {
			markDegraded(rctx, f.Name())
			continue
		}
		if key != "" {
			rctx.MarkPrepared(key)
		}
	}
}

// Keep 判断 item 是否通过所有过滤器，返回拦截它的过滤器名称。
// 单个过滤器出错时视为放行，并记录 degraded 标签。
func Keep(ctx context.Context, rctx *core.RecommendContext, filters []Filter, item *core.Item) (bool, string) {
	for _, f := range filters {
		drop, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			markDegraded(rctx, f.Name())
			continue
		}
		if drop {
			return false, f.Name()
		}
	}
	return true, ""
}
