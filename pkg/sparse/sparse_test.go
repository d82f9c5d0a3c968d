package sparse

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVector(t *testing.T) {
	v := NewVector(5, map[int]float64{3: 2, 0: 1, 4: 0, 9: 7})
	assert.Equal(t, 5, v.Dim)
	assert.Equal(t, []int{0, 3}, v.Indices)
	assert.Equal(t, []float64{1, 2}, v.Values)
	assert.Equal(t, 2.0, v.At(3))
	assert.Equal(t, 0.0, v.At(1))
	assert.Equal(t, []float64{1, 0, 0, 2, 0}, v.Dense())
}

func TestDotAndCosine(t *testing.T) {
	a := FromDense([]float64{1, 0, 2})
	b := FromDense([]float64{0, 3, 4})

	dot, err := a.Dot(b)
	require.NoError(t, err)
	assert.Equal(t, 8.0, dot)

	cos, err := Cosine(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 8/(math.Sqrt(5)*5), cos, 1e-12)

	zero := Vector{Dim: 3}
	cos, err = Cosine(a, zero)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cos)

	_, err = a.Dot(Vector{Dim: 4})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestConcat(t *testing.T) {
	a := FromDense([]float64{1, 0})
	b := FromDense([]float64{0, 0, 5})
	c := Concat(a, b)
	assert.Equal(t, 5, c.Dim)
	assert.Equal(t, []float64{1, 0, 0, 0, 5}, c.Dense())
}

func TestMatrixHStack(t *testing.T) {
	text, err := FromDenseRows(2, [][]float64{{1, 0}, {0, 1}, {0, 0}})
	require.NoError(t, err)
	num, err := FromDenseRows(1, [][]float64{{-1}, {0}, {1}})
	require.NoError(t, err)

	m, err := HStack(text, num)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Rows())
	assert.Equal(t, 3, m.Cols())
	assert.Equal(t, []float64{1, 0, -1}, m.Row(0).Dense())
	assert.Equal(t, []float64{0, 1, 0}, m.Row(1).Dense())
	assert.Equal(t, []float64{0, 0, 1}, m.Row(2).Dense())

	short, err := FromDenseRows(1, [][]float64{{1}})
	require.NoError(t, err)
	_, err = HStack(text, short)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestMatrixCosineAll(t *testing.T) {
	m, err := FromDenseRows(2, [][]float64{{1, 0}, {1, 1}, {0, 0}})
	require.NoError(t, err)

	scores, err := m.CosineAll(FromDense([]float64{1, 0}))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores[0], 1e-12)
	assert.InDelta(t, 1/math.Sqrt(2), scores[1], 1e-12)
	assert.Equal(t, 0.0, scores[2])

	_, err = m.CosineAll(Vector{Dim: 3})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
}

func TestBuilderRejectsWrongDim(t *testing.T) {
	b := NewBuilder(2)
	require.NoError(t, b.Append(Vector{Dim: 2}))
	err := b.Append(Vector{Dim: 3})
	assert.True(t, errors.Is(err, ErrDimensionMismatch))
	assert.Equal(t, 1, b.Build().Rows())
}
