package config

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rushteam/contentkit/pipeline"
)

// 内置 Node（recall.content、recall.hot、filter、rerank.topn、rerank.backfill）由
// config/builders 在 init 中注册；service 包已匿名 import 它，单独使用 pipeline 配置时需自行
// import _ "github.com/rushteam/contentkit/config/builders"。

// NodeBuilder 与 pipeline.NodeBuilder 一致：根据 config 构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder = pipeline.NodeBuilder

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑；同名重复注册时后者覆盖前者。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回基于当前注册表构建的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func DefaultFactory() *pipeline.NodeFactory {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		f.Register(typeName, builder)
	}
	return f
}

// ValidatePipelineConfig 在构建前一次性列出配置中所有未注册（或缺少 type）的 node，
// 错误信息附带已支持的类型列表。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	var unknown []string
	for i, nc := range cfg.Pipeline.Nodes {
		if nc.Type == "" {
			unknown = append(unknown, fmt.Sprintf("#%d <missing type>", i))
			continue
		}
		if _, ok := defaultBuilders[nc.Type]; !ok {
			unknown = append(unknown, fmt.Sprintf("#%d %q", i, nc.Type))
		}
	}
	defaultBuildersMu.RUnlock()

	if len(unknown) > 0 {
		return fmt.Errorf("unsupported node type %s (supported: %v)", strings.Join(unknown, ", "), SupportedTypes())
	}
	return nil
}
