// Package sparse 提供推荐链路所需的最小稀疏线性代数：稀疏行向量与 CSR 矩阵。
//
// 所有类型在构建后只读，可被多个 goroutine 并发读取。
package sparse

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDimensionMismatch 表示两个向量/矩阵的维度不一致。
var ErrDimensionMismatch = errors.New("sparse: dimension mismatch")

// Vector 是稀疏行向量，Indices 严格升序，与 Values 一一对应。
type Vector struct {
	Dim     int
	Indices []int
	Values  []float64
}

// NewVector 从 index -> value 构建稀疏向量，丢弃 0 值与越界下标。
func NewVector(dim int, entries map[int]float64) Vector {
	v := Vector{Dim: dim}
	if len(entries) == 0 {
		return v
	}
	idx := make([]int, 0, len(entries))
	for i, val := range entries {
		if i < 0 || i >= dim || val == 0 {
			continue
		}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	v.Indices = idx
	v.Values = make([]float64, len(idx))
	for k, i := range idx {
		v.Values[k] = entries[i]
	}
	return v
}

// FromDense 把稠密切片转为稀疏向量。
func FromDense(dense []float64) Vector {
	v := Vector{Dim: len(dense)}
	for i, val := range dense {
		if val == 0 {
			continue
		}
		v.Indices = append(v.Indices, i)
		v.Values = append(v.Values, val)
	}
	return v
}

// Nnz 返回非零元素个数。
func (v Vector) Nnz() int { return len(v.Indices) }

// At 返回第 i 维的值。
func (v Vector) At(i int) float64 {
	k := sort.SearchInts(v.Indices, i)
	if k < len(v.Indices) && v.Indices[k] == i {
		return v.Values[k]
	}
	return 0
}

// Dense 转为稠密切片。
func (v Vector) Dense() []float64 {
	out := make([]float64, v.Dim)
	for k, i := range v.Indices {
		out[i] = v.Values[k]
	}
	return out
}

// Norm 返回 L2 范数。
func (v Vector) Norm() float64 {
	var sum float64
	for _, val := range v.Values {
		sum += val * val
	}
	return math.Sqrt(sum)
}

// Dot 计算两个稀疏向量的内积（双指针归并）。
func (v Vector) Dot(w Vector) (float64, error) {
	if v.Dim != w.Dim {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, v.Dim, w.Dim)
	}
	var sum float64
	i, j := 0, 0
	for i < len(v.Indices) && j < len(w.Indices) {
		switch {
		case v.Indices[i] == w.Indices[j]:
			sum += v.Values[i] * w.Values[j]
			i++
			j++
		case v.Indices[i] < w.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum, nil
}

// Cosine 计算余弦相似度；任一向量为零向量时返回 0。
func Cosine(a, b Vector) (float64, error) {
	dot, err := a.Dot(b)
	if err != nil {
		return 0, err
	}
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (na * nb), nil
}

// Concat 按顺序水平拼接多个向量，后一段的下标整体偏移前面各段的维度之和。
func Concat(vs ...Vector) Vector {
	var dim, nnz int
	for _, v := range vs {
		dim += v.Dim
		nnz += v.Nnz()
	}
	out := Vector{
		Dim:     dim,
		Indices: make([]int, 0, nnz),
		Values:  make([]float64, 0, nnz),
	}
	offset := 0
	for _, v := range vs {
		for k, i := range v.Indices {
			out.Indices = append(out.Indices, i+offset)
			out.Values = append(out.Values, v.Values[k])
		}
		offset += v.Dim
	}
	return out
}

// Equal 判断两个向量是否逐位相同。
func (v Vector) Equal(w Vector) bool {
	if v.Dim != w.Dim || len(v.Indices) != len(w.Indices) {
		return false
	}
	for k := range v.Indices {
		if v.Indices[k] != w.Indices[k] || math.Float64bits(v.Values[k]) != math.Float64bits(w.Values[k]) {
			return false
		}
	}
	return true
}
