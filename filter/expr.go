package filter

import (
	"context"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤物品：表达式为 true 的物品被保留，false 被过滤。
//
// 示例：`has(item.meta.original_language) && item.meta.original_language == "en"`
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式并创建过滤器。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	keep, err := f.prg.Match(item, rctx)
	if err != nil {
		return false, err
	}
	return !keep, nil
}
