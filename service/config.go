package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/feature"
)

// EnvPrefix 是环境变量前缀，CONTENTKIT_RANK_TOP_K 对应 rank.top_k。
const EnvPrefix = "CONTENTKIT_"

// 历史存储后端
const (
	HistoryNone   = "none"
	HistoryMemory = "memory"
	HistoryRedis  = "redis"
)

// Config 是推荐服务的完整配置。
// 加载顺序：DefaultConfig -> YAML 文件 -> CONTENTKIT_ 环境变量，后者覆盖前者。
type Config struct {
	// Catalog 是物品表文件路径（.csv / .jsonl / .json），仅 NewFromConfig 使用
	Catalog string        `koanf:"catalog"`
	Space   SpaceConfig   `koanf:"space"`
	Rank    RankConfig    `koanf:"rank"`
	History HistoryConfig `koanf:"history"`
}

// SpaceConfig 对应 feature.SpaceConfig。
type SpaceConfig struct {
	IDColumn          string   `koanf:"id_column"`
	DisplayColumn     string   `koanf:"display_column"`
	PopularityColumn  string   `koanf:"popularity_column"`
	TextColumns       []string `koanf:"text_columns"`
	StructuredColumns []string `koanf:"structured_columns"`
	StructuredKey     string   `koanf:"structured_key"`
	NumericColumns    []string `koanf:"numeric_columns" validate:"unique"`
	Vectorizer        string   `koanf:"vectorizer" validate:"omitempty,oneof=tfidf count"`
	Scaler            string   `koanf:"scaler" validate:"omitempty,oneof=standard minmax"`
}

type RankConfig struct {
	TopK          int     `koanf:"top_k" validate:"min=1,max=1000"`
	MinSimilarity float64 `koanf:"min_similarity" validate:"min=0,max=1"`
	// Pipeline 是可选的 pipeline 配置文件，为空时使用默认链路
	Pipeline    string `koanf:"pipeline"`
	Concurrency int    `koanf:"concurrency" validate:"min=1,max=256"`
	// QueryCache 是每个快照缓存的查询向量条数，0 关闭缓存
	QueryCache int `koanf:"query_cache" validate:"min=0,max=1000000"`
}

type HistoryConfig struct {
	Backend   string        `koanf:"backend" validate:"oneof=none memory redis"`
	RedisAddr string        `koanf:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int           `koanf:"redis_db" validate:"min=0"`
	KeyPrefix string        `koanf:"key_prefix"`
	TTL       time.Duration `koanf:"ttl" validate:"min=0"`
	// Window 只排除该时间窗口内看过的物品，0 表示全部历史
	Window time.Duration `koanf:"window" validate:"min=0"`
	// MarkSeen 为 true 时把返回的结果写回历史
	MarkSeen bool `koanf:"mark_seen"`
	// BreakerFailures 是 redis 连续失败多少次后熔断，0 关闭熔断
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"min=0"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Space: SpaceConfig{
			StructuredKey: feature.DefaultStructuredKey,
			Vectorizer:    string(feature.TextTfidf),
			Scaler:        string(feature.ScalerStandard),
		},
		Rank: RankConfig{
			TopK:        10,
			Concurrency: 8,
			QueryCache:  256,
		},
		History: HistoryConfig{
			Backend:         HistoryNone,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
	}
}

// FeatureConfig 转换为 feature.SpaceConfig。
func (c SpaceConfig) FeatureConfig() feature.SpaceConfig {
	return feature.SpaceConfig{
		TextColumns:       c.TextColumns,
		StructuredColumns: c.StructuredColumns,
		StructuredKey:     c.StructuredKey,
		NumericColumns:    c.NumericColumns,
		Vectorizer:        feature.TextKind(c.Vectorizer),
		Scaler:            feature.ScalerKind(c.Scaler),
		IDColumn:          c.IDColumn,
		DisplayColumn:     c.DisplayColumn,
		PopularityColumn:  c.PopularityColumn,
	}
}

// LoadConfig 依次加载默认值、path 指向的 YAML 文件（可为空）与环境变量，并校验。
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey 把 CONTENTKIT_RANK_TOP_K 转为 rank.top_k：第一个下划线分隔小节，其余保留。
func envKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, rest, ok := strings.Cut(key, "_")
	if !ok {
		return section
	}
	return section + "." + rest
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验配置，失败时返回 INVALID_CONFIG。
func (c *Config) Validate() error {
	err := getValidator().Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("service: invalid config: %v", err))
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidConfig,
		"service: invalid config: "+strings.Join(msgs, "; "))
}
