package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/feature"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Rank.TopK)
	assert.Equal(t, 8, cfg.Rank.Concurrency)
	assert.Equal(t, "tfidf", cfg.Space.Vectorizer)
	assert.Equal(t, "standard", cfg.Space.Scaler)
	assert.Equal(t, "name", cfg.Space.StructuredKey)
	assert.Equal(t, HistoryNone, cfg.History.Backend)
	assert.Equal(t, 256, cfg.Rank.QueryCache)
	assert.Equal(t, uint32(5), cfg.History.BreakerFailures)
	assert.Equal(t, 30*time.Second, cfg.History.BreakerTimeout)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contentkit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: movies.csv
space:
  id_column: id
  display_column: title
  popularity_column: popularity
  text_columns: [overview, tagline]
  structured_columns: [genres, keywords]
  numeric_columns: [runtime]
  scaler: minmax
rank:
  top_k: 20
  min_similarity: 0.05
history:
  backend: memory
  window: 720h
  mark_seen: true
`), 0o644))
	t.Setenv("CONTENTKIT_RANK_TOP_K", "5")
	t.Setenv("CONTENTKIT_SPACE_VECTORIZER", "count")
	t.Setenv("CONTENTKIT_HISTORY_BREAKER_FAILURES", "3")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "movies.csv", cfg.Catalog)
	assert.Equal(t, 5, cfg.Rank.TopK)
	assert.InDelta(t, 0.05, cfg.Rank.MinSimilarity, 1e-12)
	assert.Equal(t, 8, cfg.Rank.Concurrency)
	assert.Equal(t, []string{"overview", "tagline"}, cfg.Space.TextColumns)
	assert.Equal(t, []string{"runtime"}, cfg.Space.NumericColumns)
	assert.Equal(t, 720*time.Hour, cfg.History.Window)
	assert.True(t, cfg.History.MarkSeen)
	assert.Equal(t, uint32(3), cfg.History.BreakerFailures)

	fc := cfg.Space.FeatureConfig()
	assert.Equal(t, feature.TextCount, fc.Vectorizer)
	assert.Equal(t, feature.ScalerMinMax, fc.Scaler)
	assert.Equal(t, []string{"genres", "keywords"}, fc.StructuredColumns)
	assert.Equal(t, "popularity", fc.PopularityColumn)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "top_k zero", mutate: func(c *Config) { c.Rank.TopK = 0 }, field: "TopK"},
		{name: "min_similarity above one", mutate: func(c *Config) { c.Rank.MinSimilarity = 1.5 }, field: "MinSimilarity"},
		{name: "unknown vectorizer", mutate: func(c *Config) { c.Space.Vectorizer = "bm25" }, field: "Vectorizer"},
		{name: "unknown scaler", mutate: func(c *Config) { c.Space.Scaler = "robust" }, field: "Scaler"},
		{name: "duplicate numeric columns", mutate: func(c *Config) { c.Space.NumericColumns = []string{"x", "x"} }, field: "NumericColumns"},
		{name: "redis without address", mutate: func(c *Config) { c.History.Backend = HistoryRedis }, field: "RedisAddr"},
		{name: "unknown history backend", mutate: func(c *Config) { c.History.Backend = "etcd" }, field: "Backend"},
		{name: "negative query cache", mutate: func(c *Config) { c.Rank.QueryCache = -1 }, field: "QueryCache"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, core.IsInvalidConfig(err))
			assert.Contains(t, err.Error(), tc.field)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "rank.top_k", envKey("CONTENTKIT_RANK_TOP_K"))
	assert.Equal(t, "history.redis_addr", envKey("CONTENTKIT_HISTORY_REDIS_ADDR"))
	assert.Equal(t, "catalog", envKey("CONTENTKIT_CATALOG"))
}
