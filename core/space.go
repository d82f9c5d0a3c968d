package core

import "github.com/rushteam/contentkit/pkg/sparse"

// ItemSpace 是召回与兜底节点所见的只读向量空间。
//
// 设计原则：
//   - 定义在领域层（core），由 feature.VectorSpace 实现
//   - 拟合完成后不可变，可被任意多个请求并发读取
//   - 所有下标都是 catalog 行号
type ItemSpace interface {
	// Len 返回物品数量
	Len() int

	// Dim 返回组合特征矩阵的列数
	Dim() int

	// ItemID 返回第 index 行的物品标识
	ItemID(index int) string

	// IndexOf 按标识查找行号
	IndexOf(id string) (int, bool)

	// Display 返回用于展示的属性（如标题），缺失时回退为标识
	Display(index int) string

	// Popularity 返回热度；未配置热度列或值缺失时返回 (0, false)
	Popularity(index int) (float64, bool)

	// Attributes 返回该行的原始属性，供表达式过滤使用
	Attributes(index int) map[string]any

	// Similarities 计算 query 与每一行的余弦相似度，下标与行号一致
	Similarities(query sparse.Vector) ([]float64, error)
}
