// Package textclean 把原始文本规整为适合向量化的形式：
// 小写、去标点、去数字、合并空白、去停用词。
package textclean

import (
	"regexp"
	"strings"
)

var (
	punctRegex = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]`)
	digitRegex = regexp.MustCompile(`\p{Nd}+`)
)

// Cleaner 持有一份停用词表。零值不过滤任何停用词。
type Cleaner struct {
	stopWords map[string]struct{}
}

// NewCleaner 使用给定停用词创建 Cleaner。
func NewCleaner(stopWords []string) *Cleaner {
	return &Cleaner{stopWords: BuildStopWordMap(stopWords)}
}

var defaultCleaner = NewCleaner(EnglishStopWords)

// Clean 使用默认英文停用词清洗文本。nil 或非字符串输入返回空串。
func Clean(text any) string {
	return defaultCleaner.Clean(text)
}

// Clean 清洗单个值。
func (c *Cleaner) Clean(text any) string {
	s, ok := text.(string)
	if !ok || s == "" {
		return ""
	}
	s = strings.ToLower(s)
	s = punctRegex.ReplaceAllString(s, " ")
	s = digitRegex.ReplaceAllString(s, " ")

	tokens := strings.Fields(s)
	if c == nil || len(c.stopWords) == 0 {
		return strings.Join(tokens, " ")
	}
	return strings.Join(FilterStopWords(tokens, c.stopWords), " ")
}

// FilterStopWords 移除停用词，保持原有顺序。
func FilterStopWords(tokens []string, stopWords map[string]struct{}) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BuildStopWordMap 把停用词切片转为小写集合。
func BuildStopWordMap(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
