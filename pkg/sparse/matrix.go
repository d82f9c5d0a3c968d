package sparse

import "fmt"

// Matrix 是 CSR（Compressed Sparse Row）格式的只读矩阵。
type Matrix struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// Builder 逐行构建 Matrix。
type Builder struct {
	cols int
	m    *Matrix
}

// NewBuilder 创建列数固定为 cols 的矩阵构建器。
func NewBuilder(cols int) *Builder {
	return &Builder{
		cols: cols,
		m:    &Matrix{cols: cols, indptr: []int{0}},
	}
}

// Append 追加一行，行向量维度必须等于矩阵列数。
func (b *Builder) Append(v Vector) error {
	if v.Dim != b.cols {
		return fmt.Errorf("%w: row dim %d, matrix cols %d", ErrDimensionMismatch, v.Dim, b.cols)
	}
	b.m.indices = append(b.m.indices, v.Indices...)
	b.m.data = append(b.m.data, v.Values...)
	b.m.indptr = append(b.m.indptr, len(b.m.indices))
	b.m.rows++
	return nil
}

// Build 返回构建好的矩阵，之后不应再调用 Append。
func (b *Builder) Build() *Matrix {
	return b.m
}

// FromRows 用一组同维度行向量构建矩阵。
func FromRows(cols int, rows []Vector) (*Matrix, error) {
	b := NewBuilder(cols)
	for i, r := range rows {
		if err := b.Append(r); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build(), nil
}

// FromDenseRows 用稠密二维切片构建矩阵，cols 为列数。
func FromDenseRows(cols int, rows [][]float64) (*Matrix, error) {
	vs := make([]Vector, len(rows))
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("row %d: %w: %d != %d", i, ErrDimensionMismatch, len(r), cols)
		}
		vs[i] = FromDense(r)
	}
	return FromRows(cols, vs)
}

func (m *Matrix) Rows() int { return m.rows }
func (m *Matrix) Cols() int { return m.cols }

// Nnz 返回非零元素个数。
func (m *Matrix) Nnz() int { return len(m.data) }

// Row 返回第 i 行。返回的向量与矩阵共享底层数组，调用方不得修改。
func (m *Matrix) Row(i int) Vector {
	start, end := m.indptr[i], m.indptr[i+1]
	return Vector{
		Dim:     m.cols,
		Indices: m.indices[start:end:end],
		Values:  m.data[start:end:end],
	}
}

// HStack 水平拼接两个行数相同的矩阵，保持行顺序。
func HStack(a, b *Matrix) (*Matrix, error) {
	if a.rows != b.rows {
		return nil, fmt.Errorf("%w: hstack rows %d != %d", ErrDimensionMismatch, a.rows, b.rows)
	}
	out := NewBuilder(a.cols + b.cols)
	for i := 0; i < a.rows; i++ {
		if err := out.Append(Concat(a.Row(i), b.Row(i))); err != nil {
			return nil, err
		}
	}
	return out.Build(), nil
}

// CosineAll 计算 q 与每一行的余弦相似度，结果下标与行号一致。
func (m *Matrix) CosineAll(q Vector) ([]float64, error) {
	if q.Dim != m.cols {
		return nil, fmt.Errorf("%w: query dim %d, matrix cols %d", ErrDimensionMismatch, q.Dim, m.cols)
	}
	scores := make([]float64, m.rows)
	qn := q.Norm()
	if qn == 0 {
		return scores, nil
	}
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		rn := row.Norm()
		if rn == 0 {
			continue
		}
		dot, err := q.Dot(row)
		if err != nil {
			return nil, err
		}
		scores[i] = dot / (qn * rn)
	}
	return scores, nil
}
