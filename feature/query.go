package feature

import (
	"fmt"
	"slices"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/sparse"
)

// BuildQuery 把用户输入投影到已拟合的向量空间，得到与组合特征矩阵列布局一致的查询向量。
//
//   - userText 只经过已拟合的 vectorizer（不会重新拟合），未登录词被丢弃
//   - numericColumns 非空时按其顺序组装数值行，numericValues 中缺失的列取 0，再经已拟合的 scaler 转换
//   - scaler 的列必须与 numericColumns 完全一致，否则返回 DIMENSION_MISMATCH
//   - numericColumns 为空时直接返回文本投影
//
// 相同输入总是得到逐位相同的向量。
func BuildQuery(
	userText string,
	vectorizer TextVectorizer,
	numericValues map[string]float64,
	numericColumns []string,
	scaler Scaler,
) (sparse.Vector, error) {
	if vectorizer == nil {
		return sparse.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			"feature: nil vectorizer")
	}
	text := vectorizer.Transform(userText)
	if len(numericColumns) == 0 {
		return text, nil
	}

	row := make([]float64, len(numericColumns))
	for i, name := range numericColumns {
		row[i] = numericValues[name]
	}
	if scaler != nil {
		if !slices.Equal(scaler.Columns(), numericColumns) {
			return sparse.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
				fmt.Sprintf("feature: query numeric columns %v, scaler fitted on %v", numericColumns, scaler.Columns()))
		}
		scaled, err := scaler.Transform(row)
		if err != nil {
			return sparse.Vector{}, err
		}
		row = scaled
	}
	return sparse.Concat(text, sparse.FromDense(row)), nil
}
