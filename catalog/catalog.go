// Package catalog 是物品表：按列名访问、一行一个物品、行顺序稳定。
//
// 行号是物品在整个向量空间链路中的唯一位置；任何阶段都不会重排或丢弃行。
package catalog

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/conv"
)

// Catalog 以列存方式保存物品属性。值类型为 string / float64 / nil 或解码后的结构化值。
type Catalog struct {
	columns []string
	index   map[string]int
	data    [][]any
	rows    int
}

// New 用列名与行数据构建 Catalog，每行长度必须等于列数。
func New(columns []string, rows [][]any) (*Catalog, error) {
	c := &Catalog{
		index: make(map[string]int, len(columns)),
		rows:  len(rows),
	}
	for _, name := range columns {
		if _, dup := c.index[name]; dup {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("catalog: duplicate column %q", name))
		}
		c.index[name] = len(c.columns)
		c.columns = append(c.columns, name)
		c.data = append(c.data, make([]any, len(rows)))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: row %d has %d values, want %d", r, len(row), len(columns)))
		}
		for col, v := range row {
			c.data[col][r] = v
		}
	}
	return c, nil
}

// FromRecords 用 map 形式的行构建 Catalog，列顺序由 columns 指定，缺失值为 nil。
func FromRecords(columns []string, records []map[string]any) (*Catalog, error) {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(columns))
		for j, name := range columns {
			row[j] = rec[name]
		}
		rows[i] = row
	}
	return New(columns, rows)
}

// Len 返回物品数量。
func (c *Catalog) Len() int { return c.rows }

// Columns 返回列名（按加入顺序）。
func (c *Catalog) Columns() []string {
	out := make([]string, len(c.columns))
	copy(out, c.columns)
	return out
}

// Has 判断列是否存在。
func (c *Catalog) Has(name string) bool {
	_, ok := c.index[name]
	return ok
}

// Column 返回整列数据。返回值与 Catalog 共享，调用方不得修改。
func (c *Catalog) Column(name string) ([]any, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.data[i], true
}

// Value 返回 (name, row) 处的值；列不存在时返回 nil。
func (c *Catalog) Value(name string, row int) any {
	i, ok := c.index[name]
	if !ok || row < 0 || row >= c.rows {
		return nil
	}
	return c.data[i][row]
}

// String 返回字符串值；nil 与非字符串返回 ("", false)。
func (c *Catalog) String(name string, row int) (string, bool) {
	return conv.ToString(c.Value(name, row))
}

// Float 返回数值；支持数值类型与可解析的数字字符串，NaN 视为缺失。
func (c *Catalog) Float(name string, row int) (float64, bool) {
	return conv.ToFloat64(c.Value(name, row))
}

// SetColumn 新增或替换一列，长度必须等于行数。
func (c *Catalog) SetColumn(name string, values []any) error {
	if len(values) != c.rows {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: column %q has %d values, want %d", name, len(values), c.rows))
	}
	if i, ok := c.index[name]; ok {
		c.data[i] = values
		return nil
	}
	c.index[name] = len(c.columns)
	c.columns = append(c.columns, name)
	c.data = append(c.data, values)
	return nil
}

// Clone 返回一个可独立增删列的副本。列数据切片共享，SetColumn 总是整列替换，因此互不影响。
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		columns: make([]string, len(c.columns)),
		index:   make(map[string]int, len(c.index)),
		data:    make([][]any, len(c.data)),
		rows:    c.rows,
	}
	copy(out.columns, c.columns)
	copy(out.data, c.data)
	for k, v := range c.index {
		out.index[k] = v
	}
	return out
}

// IDs 返回每行的标识。idColumn 为空时使用十进制行号；标识缺失或重复属于配置错误。
func (c *Catalog) IDs(idColumn string) ([]string, error) {
	ids := make([]string, c.rows)
	if idColumn == "" {
		for i := range ids {
			ids[i] = strconv.Itoa(i)
		}
		return ids, nil
	}
	col, ok := c.Column(idColumn)
	if !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("catalog: id column %q not found", idColumn))
	}
	seen := make(map[string]int, c.rows)
	for i, v := range col {
		id, ok := formatID(v)
		if !ok {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("catalog: row %d has empty id", i))
		}
		if prev, dup := seen[id]; dup {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("catalog: duplicate id %q at rows %d and %d", id, prev, i))
		}
		seen[id] = i
		ids[i] = id
	}
	return ids, nil
}

func formatID(v any) (string, bool) {
	switch id := v.(type) {
	case nil:
		return "", false
	case string:
		return id, id != ""
	case float64:
		if math.IsNaN(id) {
			return "", false
		}
		return strconv.FormatFloat(id, 'f', -1, 64), true
	default:
		return fmt.Sprint(id), true
	}
}
