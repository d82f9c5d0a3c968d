package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/pkg/utils"
)

func sampleItem() *core.Item {
	it := core.NewItem("m42", 3)
	it.Score = 0.35
	it.Meta["original_language"] = "en"
	it.Meta["vote_count"] = 1200.0
	it.PutLabel("recall_source", utils.Label{Value: "content", Source: "recall"})
	return it
}

func TestEvaluate(t *testing.T) {
	rctx := &core.RecommendContext{
		UserID: "u7",
		Scene:  "home",
		Params: map[string]any{"text": "space adventure"},
	}
	cases := []struct {
		expr string
		want bool
	}{
		{expr: ``, want: true},
		{expr: `item.score > 0.2`, want: true},
		{expr: `item.id == "m42" && item.index == 3`, want: true},
		{expr: `item.meta.original_language == "fr"`, want: false},
		{expr: `has(item.meta.runtime)`, want: false},
		{expr: `item.meta.vote_count >= 1000.0`, want: true},
		{expr: `label.recall_source == "content"`, want: true},
		{expr: `rctx.user_id == "u7" && rctx.scene == "home"`, want: true},
		{expr: `rctx.params.text.contains("space")`, want: true},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := Evaluate(tc.expr, sampleItem(), rctx)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluateWithoutContext(t *testing.T) {
	got, err := Evaluate(`item.score < 1.0`, sampleItem(), nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`item.score >`)
	require.Error(t, err)

	p, err := Compile(`item.score`)
	require.NoError(t, err)
	_, err = p.Match(sampleItem(), nil)
	require.Error(t, err, "non-boolean result")

	p, err = Compile(`item.meta.missing == 1`)
	require.NoError(t, err)
	_, err = p.Match(sampleItem(), nil)
	require.Error(t, err, "missing key")
	assert.Equal(t, `item.meta.missing == 1`, p.String())
}

type metaSpace struct {
	core.ItemSpace
	attrs map[string]any
}

func (s metaSpace) Attributes(int) map[string]any { return s.attrs }

func TestMetaFallsBackToSpace(t *testing.T) {
	rctx := &core.RecommendContext{Space: metaSpace{attrs: map[string]any{"lang": "ja"}}}
	got, err := Evaluate(`item.meta.lang == "ja"`, core.NewItem("x", 0), rctx)
	require.NoError(t, err)
	assert.True(t, got)
}
