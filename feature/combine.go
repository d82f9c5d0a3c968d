package feature

import (
	"strings"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/pkg/structured"
	"github.com/rushteam/contentkit/pkg/textclean"
)

const (
	// DefaultCombinedColumn 是合并文本列的默认列名。
	DefaultCombinedColumn = "combined_text"
	// DefaultStructuredKey 是从结构化列中提取的默认 key。
	DefaultStructuredKey = "name"

	listSuffix = "_list"
	strSuffix  = "_str"
)

// ColumnKind 区分参与合并的列类型。
type ColumnKind int

const (
	ColumnText       ColumnKind = iota // 原始文本列，清洗后原地替换
	ColumnStructured                   // 结构化列，提取 key 后写入 <col>_str
)

// ColumnRef 是合并计划中的一项。
type ColumnRef struct {
	Name string
	Kind ColumnKind
}

// Source 返回该项在 catalog 中实际参与拼接的列名。
func (r ColumnRef) Source() string {
	if r.Kind == ColumnStructured {
		return r.Name + strSuffix
	}
	return r.Name
}

// CombineSpec 描述如何把多列文本合并成一列。
type CombineSpec struct {
	StructuredColumns []string
	TextColumns       []string
	StructuredKey     string
	CombinedColumn    string
}

func (s CombineSpec) withDefaults() CombineSpec {
	if s.StructuredKey == "" {
		s.StructuredKey = DefaultStructuredKey
	}
	if s.CombinedColumn == "" {
		s.CombinedColumn = DefaultCombinedColumn
	}
	return s
}

// Plan 返回固定顺序的合并计划：先文本列，再结构化列，各自保持配置顺序。
func (s CombineSpec) Plan() []ColumnRef {
	plan := make([]ColumnRef, 0, len(s.TextColumns)+len(s.StructuredColumns))
	for _, name := range s.TextColumns {
		plan = append(plan, ColumnRef{Name: name, Kind: ColumnText})
	}
	for _, name := range s.StructuredColumns {
		plan = append(plan, ColumnRef{Name: name, Kind: ColumnStructured})
	}
	return plan
}

// Combiner 把文本列与结构化列合并为一列规整文本。
// Clean / Extract 为空时使用 textclean.Clean 与 structured.Extract。
type Combiner struct {
	Spec    CombineSpec
	Clean   func(any) string
	Extract func(raw any, key string) []string
}

// NewCombiner 创建使用默认清洗与提取函数的 Combiner。
func NewCombiner(spec CombineSpec) *Combiner {
	return &Combiner{Spec: spec.withDefaults()}
}

// Combine 是 NewCombiner(spec).Combine(cat) 的简写。
func Combine(cat *catalog.Catalog, spec CombineSpec) ([]string, error) {
	return NewCombiner(spec).Combine(cat)
}

// Combine 原地扩充 cat：
//   - 每个结构化列新增 <col>_list（提取结果）与 <col>_str（清洗后空格拼接）
//   - 每个文本列替换为清洗后的文本
//   - 新增合并列 Spec.CombinedColumn
//
// 不存在的列被跳过；不会重排或删除行。返回每行的合并文本。
func (c *Combiner) Combine(cat *catalog.Catalog) ([]string, error) {
	spec := c.Spec.withDefaults()
	clean := c.Clean
	if clean == nil {
		clean = textclean.Clean
	}
	extract := c.Extract
	if extract == nil {
		extract = structured.Extract
	}
	n := cat.Len()

	for _, name := range spec.StructuredColumns {
		col, ok := cat.Column(name)
		if !ok {
			continue
		}
		lists := make([]any, n)
		strs := make([]any, n)
		for row, raw := range col {
			values := extract(raw, spec.StructuredKey)
			cleaned := make([]string, len(values))
			for i, v := range values {
				cleaned[i] = clean(v)
			}
			lists[row] = values
			strs[row] = strings.Join(cleaned, " ")
		}
		if err := cat.SetColumn(name+listSuffix, lists); err != nil {
			return nil, err
		}
		if err := cat.SetColumn(name+strSuffix, strs); err != nil {
			return nil, err
		}
	}

	for _, name := range spec.TextColumns {
		col, ok := cat.Column(name)
		if !ok {
			continue
		}
		cleaned := make([]any, n)
		for row, raw := range col {
			cleaned[row] = clean(raw)
		}
		if err := cat.SetColumn(name, cleaned); err != nil {
			return nil, err
		}
	}

	var sources []string
	for _, ref := range spec.Plan() {
		if cat.Has(ref.Source()) {
			sources = append(sources, ref.Source())
		}
	}

	combined := make([]string, n)
	values := make([]any, n)
	parts := make([]string, len(sources))
	for row := 0; row < n; row++ {
		for i, src := range sources {
			parts[i], _ = cat.String(src, row)
		}
		combined[row] = strings.Join(parts, " ")
		values[row] = combined[row]
	}
	if err := cat.SetColumn(spec.CombinedColumn, values); err != nil {
		return nil, err
	}
	return combined, nil
}
