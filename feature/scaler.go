package feature

import (
	"fmt"
	"slices"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/sparse"
)

// ScalerKind 数值缩放方式
type ScalerKind string

const (
	ScalerStandard ScalerKind = "standard" // z = (x - mean) / std（默认）
	ScalerMinMax   ScalerKind = "minmax"   // x' = (x - min) / (max - min)
)

// zeroScale 以下的尺度视为常量列，按 1 处理。
const zeroScale = 10 * 2.220446049250313e-16

// Scaler 是已拟合的数值缩放器。拟合后只读。
type Scaler interface {
	Kind() ScalerKind
	// Columns 返回拟合时的列顺序（副本）
	Columns() []string
	// Transform 缩放一行数值，长度必须等于列数
	Transform(row []float64) ([]float64, error)
}

// affine 是逐列 (x - shift) / scale 形式的缩放。
type affine struct {
	columns []string
	shift   []float64
	scale   []float64
}

func (a *affine) Columns() []string { return slices.Clone(a.columns) }

func (a *affine) Transform(row []float64) ([]float64, error) {
	if len(row) != len(a.columns) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("feature: scaler expects %d values, got %d", len(a.columns), len(row)))
	}
	out := make([]float64, len(row))
	for i, x := range row {
		out[i] = (x - a.shift[i]) / a.scale[i]
	}
	return out, nil
}

// StandardScaler Z-score 标准化，使用总体标准差；常量列的尺度取 1。
type StandardScaler struct {
	affine
}

func (s *StandardScaler) Kind() ScalerKind { return ScalerStandard }

// Mean 返回各列均值（副本）。
func (s *StandardScaler) Mean() []float64 { return slices.Clone(s.shift) }

// Scale 返回各列尺度（副本）。
func (s *StandardScaler) Scale() []float64 { return slices.Clone(s.scale) }

// FitStandardScaler 按列拟合。data[i] 为第 i 行，列序与 columns 一致。
func FitStandardScaler(columns []string, data [][]float64) *StandardScaler {
	s := &StandardScaler{affine{
		columns: slices.Clone(columns),
		shift:   make([]float64, len(columns)),
		scale:   make([]float64, len(columns)),
	}}
	for j := range columns {
		stats := ComputeStatistics(column(data, j))
		s.shift[j] = stats.Mean
		s.scale[j] = nonZero(stats.Std)
	}
	return s
}

// MinMaxScaler 缩放到 [0, 1]；常量列只平移不缩放。
type MinMaxScaler struct {
	affine
}

func (s *MinMaxScaler) Kind() ScalerKind { return ScalerMinMax }

// FitMinMaxScaler 按列拟合。
func FitMinMaxScaler(columns []string, data [][]float64) *MinMaxScaler {
	s := &MinMaxScaler{affine{
		columns: slices.Clone(columns),
		shift:   make([]float64, len(columns)),
		scale:   make([]float64, len(columns)),
	}}
	for j := range columns {
		stats := ComputeStatistics(column(data, j))
		s.shift[j] = stats.Min
		s.scale[j] = nonZero(stats.Max - stats.Min)
	}
	return s
}

func nonZero(scale float64) float64 {
	if scale < zeroScale {
		return 1
	}
	return scale
}

func column(data [][]float64, j int) []float64 {
	out := make([]float64, len(data))
	for i, row := range data {
		out[i] = row[j]
	}
	return out
}

// NumericRows 按 columns 顺序读取 cat 的数值矩阵，缺失或非数值为 0。列不存在属于配置错误。
func NumericRows(cat *catalog.Catalog, columns []string) ([][]float64, error) {
	for _, name := range columns {
		if !cat.Has(name) {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
				fmt.Sprintf("feature: numeric column %q not found", name))
		}
	}
	rows := make([][]float64, cat.Len())
	for i := range rows {
		row := make([]float64, len(columns))
		for j, name := range columns {
			row[j], _ = cat.Float(name, i)
		}
		rows[i] = row
	}
	return rows, nil
}

// FitNumeric 拟合数值列的 scaler 并返回缩放后的矩阵。columns 为空时直接透传 (nil, nil, nil)。
func FitNumeric(cat *catalog.Catalog, columns []string, kind ScalerKind) (Scaler, *sparse.Matrix, error) {
	if len(columns) == 0 {
		return nil, nil, nil
	}
	rows, err := NumericRows(cat, columns)
	if err != nil {
		return nil, nil, err
	}
	var scaler Scaler
	switch kind {
	case ScalerStandard, "":
		scaler = FitStandardScaler(columns, rows)
	case ScalerMinMax:
		scaler = FitMinMaxScaler(columns, rows)
	default:
		return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("feature: unknown scaler %q", kind))
	}
	m, err := scaleRows(scaler, rows)
	if err != nil {
		return nil, nil, err
	}
	return scaler, m, nil
}

// FitNumericWith 用已拟合的 scaler 转换 cat，不重新拟合。scaler 的列必须与 columns 完全一致。
func FitNumericWith(cat *catalog.Catalog, columns []string, scaler Scaler) (*sparse.Matrix, error) {
	if len(columns) == 0 {
		return nil, nil
	}
	if scaler == nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			"feature: nil scaler for numeric columns")
	}
	if !slices.Equal(scaler.Columns(), columns) {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("feature: scaler columns %v != %v", scaler.Columns(), columns))
	}
	rows, err := NumericRows(cat, columns)
	if err != nil {
		return nil, err
	}
	return scaleRows(scaler, rows)
}

func scaleRows(scaler Scaler, rows [][]float64) (*sparse.Matrix, error) {
	cols := len(scaler.Columns())
	b := sparse.NewBuilder(cols)
	for _, row := range rows {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return nil, err
		}
		if err := b.Append(sparse.FromDense(scaled)); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}

// Assemble 水平拼接文本矩阵与数值矩阵，保持行序。numeric 为 nil 时原样返回 text。
func Assemble(text, numeric *sparse.Matrix) (*sparse.Matrix, error) {
	if numeric == nil {
		return text, nil
	}
	m, err := sparse.HStack(text, numeric)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("feature: assemble: %v", err))
	}
	return m, nil
}
