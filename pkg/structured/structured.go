// Package structured 解析半结构化列（JSON 或 Python 字面量风格的 dict/list），
// 并从中提取指定 key 的值。解析永不报错，无法解析的输入视为空。
package structured

import (
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind 是结构化值的形态。
type Kind int

const (
	KindNull        Kind = iota // nil / NaN / 空串
	KindRecord                  // 单个 dict
	KindRecordList              // dict 列表（非 dict 元素被丢弃）
	KindUnparseable             // 无法识别的输入
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindRecord:
		return "record"
	case KindRecordList:
		return "record_list"
	default:
		return "unparseable"
	}
}

// Value 是解析后的结构化值，只在 Parse 中构建一次。
type Value struct {
	Kind    Kind
	Records []map[string]any
}

// Parse 把任意原始值归一为 Value。
func Parse(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: KindNull}
	case float64:
		if math.IsNaN(v) {
			return Value{Kind: KindNull}
		}
		return Value{Kind: KindUnparseable}
	case string:
		if v == "" {
			return Value{Kind: KindNull}
		}
		return parseString(v)
	case map[string]any:
		return Value{Kind: KindRecord, Records: []map[string]any{v}}
	case []map[string]any:
		return Value{Kind: KindRecordList, Records: v}
	case []any:
		return Value{Kind: KindRecordList, Records: records(v)}
	default:
		return Value{Kind: KindUnparseable}
	}
}

func parseString(s string) Value {
	var decoded any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		converted, ok := literalToJSON(s)
		if !ok {
			return Value{Kind: KindUnparseable}
		}
		if err := json.Unmarshal([]byte(converted), &decoded); err != nil {
			return Value{Kind: KindUnparseable}
		}
	}
	switch d := decoded.(type) {
	case map[string]any:
		return Value{Kind: KindRecord, Records: []map[string]any{d}}
	case []any:
		return Value{Kind: KindRecordList, Records: records(d)}
	case nil:
		return Value{Kind: KindNull}
	default:
		return Value{Kind: KindUnparseable}
	}
}

func records(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Values 返回每条记录中 key 对应的值；缺少 key 的记录被跳过。
func (v Value) Values(key string) []string {
	out := make([]string, 0, len(v.Records))
	for _, rec := range v.Records {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		out = append(out, scalarString(raw))
	}
	return out
}

// Extract 等价于 Parse(raw).Values(key)。
func Extract(raw any, key string) []string {
	return Parse(raw).Values(key)
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprint(s)
	}
}
