package feature

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/sparse"
)

// TextKind 文本向量化方式
type TextKind string

const (
	TextTfidf TextKind = "tfidf" // 词频 × 平滑 idf，L2 归一化（默认）
	TextCount TextKind = "count" // 原始词频
)

// tokenPattern 匹配两个及以上连续的单词字符（字母、数字、下划线）。
var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Tokenize 把文本小写后切分为词。
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// TextVectorizer 是已拟合的文本向量化器。拟合后只读，可并发调用 Transform。
type TextVectorizer interface {
	// Kind 返回向量化方式
	Kind() TextKind
	// Dim 返回词表大小，即文本段的列数
	Dim() int
	// Terms 返回按列序排列的词表（副本）
	Terms() []string
	// Transform 把任意文本投影到已拟合的词表上，未登录词被丢弃
	Transform(text string) sparse.Vector
}

// vocabulary 是按字典序编号的词表。
type vocabulary struct {
	terms []string
	index map[string]int
}

func buildVocabulary(docs [][]string) vocabulary {
	seen := make(map[string]struct{})
	for _, tokens := range docs {
		for _, t := range tokens {
			seen[t] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	index := make(map[string]int, len(terms))
	for i, t := range terms {
		index[t] = i
	}
	return vocabulary{terms: terms, index: index}
}

func (v vocabulary) Dim() int { return len(v.terms) }

func (v vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// counts 统计已登录词的词频。
func (v vocabulary) counts(tokens []string) map[int]float64 {
	tf := make(map[int]float64, len(tokens))
	for _, t := range tokens {
		if i, ok := v.index[t]; ok {
			tf[i]++
		}
	}
	return tf
}

// CountVectorizer 原始词频向量化器。
type CountVectorizer struct {
	vocab vocabulary
}

// FitCount 在语料上拟合词频向量化器，返回向量化器与语料矩阵。
func FitCount(docs []string) (*CountVectorizer, *sparse.Matrix) {
	tokens := tokenizeAll(docs)
	cv := &CountVectorizer{vocab: buildVocabulary(tokens)}
	b := sparse.NewBuilder(cv.Dim())
	for _, doc := range tokens {
		_ = b.Append(sparse.NewVector(cv.Dim(), cv.vocab.counts(doc)))
	}
	return cv, b.Build()
}

func (cv *CountVectorizer) Kind() TextKind  { return TextCount }
func (cv *CountVectorizer) Dim() int        { return cv.vocab.Dim() }
func (cv *CountVectorizer) Terms() []string { return cv.vocab.Terms() }

// Transform 返回 text 的词频向量。
func (cv *CountVectorizer) Transform(text string) sparse.Vector {
	return sparse.NewVector(cv.Dim(), cv.vocab.counts(Tokenize(text)))
}

// TfidfVectorizer TF-IDF 向量化器
//
//	idf(t) = ln((1 + n) / (1 + df(t))) + 1
//	w(t, d) = count(t, d) * idf(t)，每行再做 L2 归一化
type TfidfVectorizer struct {
	vocab vocabulary
	idf   []float64
}

// FitTfidf 在语料上拟合 TF-IDF，返回向量化器与语料矩阵。
func FitTfidf(docs []string) (*TfidfVectorizer, *sparse.Matrix) {
	tokens := tokenizeAll(docs)
	vocab := buildVocabulary(tokens)

	df := make([]int, vocab.Dim())
	for _, doc := range tokens {
		for i := range vocab.counts(doc) {
			df[i]++
		}
	}
	n := float64(len(docs))
	idf := make([]float64, len(df))
	for i, d := range df {
		idf[i] = math.Log((1+n)/(1+float64(d))) + 1
	}

	tv := &TfidfVectorizer{vocab: vocab, idf: idf}
	b := sparse.NewBuilder(tv.Dim())
	for _, doc := range tokens {
		_ = b.Append(tv.weigh(doc))
	}
	return tv, b.Build()
}

func (tv *TfidfVectorizer) Kind() TextKind  { return TextTfidf }
func (tv *TfidfVectorizer) Dim() int        { return tv.vocab.Dim() }
func (tv *TfidfVectorizer) Terms() []string { return tv.vocab.Terms() }

// IDF 返回 term 的 idf 权重，未登录词返回 (0, false)。
func (tv *TfidfVectorizer) IDF(term string) (float64, bool) {
	i, ok := tv.vocab.index[term]
	if !ok {
		return 0, false
	}
	return tv.idf[i], true
}

// Transform 返回 text 的 TF-IDF 向量。
func (tv *TfidfVectorizer) Transform(text string) sparse.Vector {
	return tv.weigh(Tokenize(text))
}

func (tv *TfidfVectorizer) weigh(tokens []string) sparse.Vector {
	tf := tv.vocab.counts(tokens)
	for i, c := range tf {
		tf[i] = c * tv.idf[i]
	}
	// 按列序求范数，保证同一输入逐位一致
	v := sparse.NewVector(tv.Dim(), tf)
	if norm := v.Norm(); norm > 0 {
		for k := range v.Values {
			v.Values[k] /= norm
		}
	}
	return v
}

func tokenizeAll(docs []string) [][]string {
	out := make([][]string, len(docs))
	for i, d := range docs {
		out[i] = Tokenize(d)
	}
	return out
}

// FitText 在 cat 的 column 列上拟合文本向量化器。
// 列不存在属于配置错误；nil 或非字符串值按空串处理，每行都会产出一行（可能全零）。
func FitText(cat *catalog.Catalog, column string, kind TextKind) (TextVectorizer, *sparse.Matrix, error) {
	col, ok := cat.Column(column)
	if !ok {
		return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("feature: text column %q not found", column))
	}
	docs := make([]string, len(col))
	for i, v := range col {
		docs[i], _ = v.(string)
	}
	switch kind {
	case TextTfidf, "":
		tv, m := FitTfidf(docs)
		return tv, m, nil
	case TextCount:
		cv, m := FitCount(docs)
		return cv, m, nil
	default:
		return nil, nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("feature: unknown vectorizer %q", kind))
	}
}
