package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/core"
)

// appendNode 在输入后追加一个物品。
type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "append." + n.id }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id, len(items))), nil
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestPipelineRun(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "b"}}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, itemIDs(out))
	assert.Equal(t, []string{"append.a", "append.b"}, p.Names())
}

func TestPipelineRunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "b", err: boom}}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "append.b")
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}}}
	_, err := p.Run(ctx, &core.RecommendContext{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func testFactory() *NodeFactory {
	f := NewNodeFactory()
	f.Register("append", func(cfg map[string]any, _ Deps) (Node, error) {
		id, _ := cfg["id"].(string)
		if id == "" {
			return nil, errors.New("id required")
		}
		return &appendNode{id: id}, nil
	})
	return f
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: demo
  nodes:
    - type: append
      config:
        id: x
    - type: append
      config:
        id: y
`))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Pipeline.Name)

	p, err := cfg.BuildPipeline(testFactory(), Deps{})
	require.NoError(t, err)
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, itemIDs(out))
}

func TestBuildPipelineErrors(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  nodes:
    - type: append
`))
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(testFactory(), Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#0 append")

	cfg, err = ParseYAML([]byte(`
pipeline:
  nodes:
    - type: rank.lr
`))
	require.NoError(t, err)
	_, err = cfg.BuildPipeline(testFactory(), Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "supported: [append]")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(jsonPath,
		[]byte(`{"pipeline":{"name":"j","nodes":[{"type":"append","config":{"id":"z"}}]}}`), 0o644))
	yamlPath := filepath.Join(dir, "p.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("pipeline:\n  name: y\n"), 0o644))

	cfg, err := LoadFromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "j", cfg.Pipeline.Name)
	require.Len(t, cfg.Pipeline.Nodes, 1)
	assert.Equal(t, "z", cfg.Pipeline.Nodes[0].Config["id"])

	cfg, err = LoadFromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "y", cfg.Pipeline.Name)

	_, err = LoadFromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
