package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/contentkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的布尔表达式，使用 CEL (Common Expression Language) 语法。
// 编译一次，可被多个 goroutine 并发执行。
//
// 可用变量：
//   - item.id / item.index / item.score
//   - item.meta.<列名>：物品在 catalog 中的原始属性
//   - label.<key>：物品 Label 的值，例如 label.recall_source == "content"
//   - rctx.user_id / rctx.scene / rctx.params.<key>
//
// 示例：
//   - `item.score > 0.2`
//   - `has(item.meta.original_language) && item.meta.original_language == "en"`
//   - `label.recall_source == "popularity" || item.score >= 0.1`
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式，表达式结果必须为 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Match 对 item 求值。
func (p *Program) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，表达式应先用 has() 判断
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Evaluate 编译并执行一次表达式。空表达式视为 true。
func Evaluate(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if expr == "" {
		return true, nil
	}
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Match(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	meta := item.Meta
	if len(meta) == 0 && rctx != nil && rctx.Space != nil {
		meta = rctx.Space.Attributes(item.Index)
	}

	in := map[string]any{
		"item": map[string]any{
			"id":    item.ID,
			"index": item.Index,
			"score": item.Score,
			"meta":  meta,
		},
		"label": labels,
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"params":  rctx.Params,
		}
	} else {
		in["rctx"] = map[string]any{}
	}
	return in
}
