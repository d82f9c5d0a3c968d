package feature

import (
	"fmt"
	"slices"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/sparse"
)

// SpaceConfig 描述如何从 catalog 构建向量空间。
type SpaceConfig struct {
	TextColumns       []string
	StructuredColumns []string
	StructuredKey     string // 默认 name
	CombinedColumn    string // 默认 combined_text

	NumericColumns []string

	Vectorizer TextKind   // 默认 tfidf
	Scaler     ScalerKind // 默认 standard

	IDColumn         string // 为空时以行号作为标识
	DisplayColumn    string // 为空时展示标识
	PopularityColumn string // 为空时兜底按行号
}

// CombineSpec 返回对应的合并配置。
func (c SpaceConfig) CombineSpec() CombineSpec {
	return CombineSpec{
		StructuredColumns: c.StructuredColumns,
		TextColumns:       c.TextColumns,
		StructuredKey:     c.StructuredKey,
		CombinedColumn:    c.CombinedColumn,
	}.withDefaults()
}

// VectorSpace 是一次拟合得到的不可变快照：合并后的 catalog、已拟合的向量化器与 scaler、组合特征矩阵。
// 构建完成后不再修改，可被任意多个请求并发读取；重新拟合应构建新的 VectorSpace 并整体替换。
type VectorSpace struct {
	config     SpaceConfig
	catalog    *catalog.Catalog
	source     *catalog.Catalog // 构建时的原始 catalog，供表达式过滤
	vectorizer TextVectorizer
	scaler     Scaler
	matrix     *sparse.Matrix
	numStats   map[string]*FeatureStatistics

	ids        []string
	idIndex    map[string]int
	display    []string
	popularity []float64
	hasPop     []bool
}

// BuildSpace 执行 合并文本 -> 拟合文本向量 -> 拟合数值缩放 -> 拼接，返回向量空间快照。
// cat 不会被修改，合并产生的列写在内部副本上。
func BuildSpace(cat *catalog.Catalog, cfg SpaceConfig) (*VectorSpace, error) {
	spec := cfg.CombineSpec()
	cfg.StructuredKey = spec.StructuredKey
	cfg.CombinedColumn = spec.CombinedColumn
	cfg.NumericColumns = slices.Clone(cfg.NumericColumns)

	work := cat.Clone()
	if _, err := NewCombiner(spec).Combine(work); err != nil {
		return nil, fmt.Errorf("combine text: %w", err)
	}

	vectorizer, text, err := FitText(work, spec.CombinedColumn, cfg.Vectorizer)
	if err != nil {
		return nil, err
	}
	scaler, numeric, err := FitNumeric(work, cfg.NumericColumns, cfg.Scaler)
	if err != nil {
		return nil, err
	}
	matrix, err := Assemble(text, numeric)
	if err != nil {
		return nil, err
	}

	ids, err := work.IDs(cfg.IDColumn)
	if err != nil {
		return nil, err
	}

	s := &VectorSpace{
		config:     cfg,
		catalog:    work,
		source:     cat.Clone(),
		vectorizer: vectorizer,
		scaler:     scaler,
		matrix:     matrix,
		ids:        ids,
		idIndex:    make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		s.idIndex[id] = i
	}
	if err := s.loadDisplay(); err != nil {
		return nil, err
	}
	if err := s.loadPopularity(); err != nil {
		return nil, err
	}
	if len(cfg.NumericColumns) > 0 {
		rows, err := NumericRows(work, cfg.NumericColumns)
		if err != nil {
			return nil, err
		}
		s.numStats = make(map[string]*FeatureStatistics, len(cfg.NumericColumns))
		for j, name := range cfg.NumericColumns {
			s.numStats[name] = ComputeStatistics(column(rows, j))
		}
	}
	return s, nil
}

func (s *VectorSpace) loadDisplay() error {
	s.display = slices.Clone(s.ids)
	name := s.config.DisplayColumn
	if name == "" {
		return nil
	}
	if !s.catalog.Has(name) {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("feature: display column %q not found", name))
	}
	for i := range s.display {
		if v, ok := s.catalog.String(name, i); ok && v != "" {
			s.display[i] = v
		}
	}
	return nil
}

func (s *VectorSpace) loadPopularity() error {
	n := s.catalog.Len()
	s.popularity = make([]float64, n)
	s.hasPop = make([]bool, n)
	name := s.config.PopularityColumn
	if name == "" {
		return nil
	}
	if !s.catalog.Has(name) {
		return core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("feature: popularity column %q not found", name))
	}
	for i := 0; i < n; i++ {
		s.popularity[i], s.hasPop[i] = s.catalog.Float(name, i)
	}
	return nil
}

// Config 返回构建时的配置（已填充默认值）。
func (s *VectorSpace) Config() SpaceConfig { return s.config }

// Catalog 返回合并后的 catalog 副本，修改副本不影响向量空间。
func (s *VectorSpace) Catalog() *catalog.Catalog { return s.catalog.Clone() }

// Matrix 返回组合特征矩阵。
func (s *VectorSpace) Matrix() *sparse.Matrix { return s.matrix }

// Vectorizer 返回已拟合的文本向量化器。
func (s *VectorSpace) Vectorizer() TextVectorizer { return s.vectorizer }

// Scaler 返回已拟合的 scaler，未配置数值列时为 nil。
func (s *VectorSpace) Scaler() Scaler { return s.scaler }

// NumericColumns 返回数值列顺序（副本）。
func (s *VectorSpace) NumericColumns() []string { return slices.Clone(s.config.NumericColumns) }

// NumericStats 返回各数值列（缺失按 0）的统计信息副本。
func (s *VectorSpace) NumericStats() map[string]*FeatureStatistics {
	out := make(map[string]*FeatureStatistics, len(s.numStats))
	for name, st := range s.numStats {
		cp := *st
		out[name] = &cp
	}
	return out
}

// TextDim 返回文本段列数。
func (s *VectorSpace) TextDim() int { return s.vectorizer.Dim() }

func (s *VectorSpace) Len() int                { return s.matrix.Rows() }
func (s *VectorSpace) Dim() int                { return s.matrix.Cols() }
func (s *VectorSpace) ItemID(index int) string { return s.ids[index] }

func (s *VectorSpace) IndexOf(id string) (int, bool) {
	i, ok := s.idIndex[id]
	return i, ok
}

func (s *VectorSpace) Display(index int) string { return s.display[index] }

func (s *VectorSpace) Popularity(index int) (float64, bool) {
	return s.popularity[index], s.hasPop[index]
}

// Attributes 返回原始 catalog（清洗前）在该行的值。
func (s *VectorSpace) Attributes(index int) map[string]any {
	columns := s.source.Columns()
	out := make(map[string]any, len(columns))
	for _, name := range columns {
		out[name] = s.source.Value(name, index)
	}
	return out
}

// Similarities 计算 query 与每一行的余弦相似度。维度不一致时返回 DIMENSION_MISMATCH。
func (s *VectorSpace) Similarities(query sparse.Vector) ([]float64, error) {
	scores, err := s.matrix.CosineAll(query)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("feature: %v", err))
	}
	return scores, nil
}

// Query 用快照自身的向量化器、数值列与 scaler 构建查询向量。
func (s *VectorSpace) Query(text string, values map[string]float64) (sparse.Vector, error) {
	q, err := BuildQuery(text, s.vectorizer, values, s.config.NumericColumns, s.scaler)
	if err != nil {
		return sparse.Vector{}, err
	}
	if q.Dim != s.matrix.Cols() {
		return sparse.Vector{}, core.NewDomainError(core.ModuleFeature, core.ErrorCodeDimensionMismatch,
			fmt.Sprintf("feature: query dim %d, matrix cols %d", q.Dim, s.matrix.Cols()))
	}
	return q, nil
}

var _ core.ItemSpace = (*VectorSpace)(nil)
