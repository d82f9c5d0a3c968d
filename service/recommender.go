// Package service 在向量空间快照之上提供线程安全的推荐服务：
// 持有当前快照、支持整体重建替换、单条与批量推荐、可选的浏览历史写回。
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/contentkit/catalog"
	"github.com/rushteam/contentkit/config"
	_ "github.com/rushteam/contentkit/config/builders"
	"github.com/rushteam/contentkit/core"
	"github.com/rushteam/contentkit/feature"
	"github.com/rushteam/contentkit/filter"
	"github.com/rushteam/contentkit/pipeline"
	"github.com/rushteam/contentkit/rank"
	"github.com/rushteam/contentkit/recall"
	"github.com/rushteam/contentkit/store"
)

// Snapshot 是一次拟合的结果，替换时整体替换，不会原地修改。
type Snapshot struct {
	Version string
	Space   *feature.VectorSpace
	BuiltAt time.Time

	queries *queryCache
}

// Request 是一次推荐请求。
type Request struct {
	UserID string
	// Text 是用户描述偏好的自由文本
	Text string
	// Numeric 是用户给出的数值属性，缺失的列按 0
	Numeric map[string]float64
	// TopK <= 0 时使用配置的默认值
	TopK    int
	Exclude []string
}

// Response 是一次推荐的结果。
type Response struct {
	Version  string        `json:"version"`
	Results  []rank.Result `json:"results"`
	Degraded []string      `json:"degraded,omitempty"`
}

// Recommender 是并发安全的推荐服务。
type Recommender struct {
	cfg      *Config
	ranker   *rank.Ranker
	history  core.HistoryStore
	owned    bool // history 由 NewFromConfig 创建，Close 时关闭
	metrics  *Metrics
	logger   *slog.Logger
	pipeline *pipeline.Pipeline

	snapshot atomic.Pointer[Snapshot]
}

// Option 配置 Recommender。
type Option func(*Recommender)

// WithLogger 设置 logger，nil 时使用 slog.Default()。
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// WithMetrics 设置指标，未设置时不采集。
func WithMetrics(m *Metrics) Option {
	return func(r *Recommender) { r.metrics = m }
}

// WithHistory 设置浏览历史存储，优先于配置中的 history.backend。
func WithHistory(h core.HistoryStore) Option {
	return func(r *Recommender) { r.history = h }
}

// WithPipeline 直接指定排序链路，优先于配置中的 rank.pipeline。
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(r *Recommender) { r.pipeline = p }
}

// New 在 cat 上拟合首个快照并创建 Recommender。cfg 为 nil 时使用 DefaultConfig()。
func New(ctx context.Context, cat *catalog.Catalog, cfg *Config, opts ...Option) (*Recommender, error) {
	r, err := newRecommender(cfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := r.init(ctx, cat); err != nil {
		return nil, err
	}
	return r, nil
}

// NewFromConfig 从 cfg.Catalog 加载物品表；未通过 WithHistory 指定历史存储时按 cfg.History 创建，
// 并在 Close 时关闭它。
func NewFromConfig(ctx context.Context, cfg *Config, opts ...Option) (*Recommender, error) {
	if cfg == nil || cfg.Catalog == "" {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidConfig,
			"service: catalog path is required")
	}
	r, err := newRecommender(cfg, opts...)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.LoadFile(cfg.Catalog)
	if err != nil {
		return nil, err
	}
	if r.history == nil {
		history, err := OpenHistory(cfg.History, r.logger)
		if err != nil {
			return nil, err
		}
		r.history, r.owned = history, history != nil
	}
	if err := r.init(ctx, cat); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

func newRecommender(cfg *Config, opts ...Option) (*Recommender, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Recommender{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Recommender) init(ctx context.Context, cat *catalog.Catalog) error {
	p, err := r.buildPipeline()
	if err != nil {
		return err
	}
	r.ranker = rank.NewRanker(p)
	r.logger.Debug("pipeline ready", slog.Any("nodes", p.Names()))
	return r.Rebuild(ctx, cat)
}

// OpenHistory 按配置创建历史存储，backend 为 none 时返回 (nil, nil)。
// redis 后端在 BreakerFailures > 0 时包一层熔断器，状态切换写入 logger（nil 时用 slog.Default()）。
func OpenHistory(cfg HistoryConfig, logger *slog.Logger) (core.HistoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Backend {
	case HistoryNone, "":
		return nil, nil
	case HistoryMemory:
		return store.NewMemoryStore(), nil
	case HistoryRedis:
		s, err := store.NewRedisStore(cfg.RedisAddr, cfg.RedisDB,
			store.WithKeyPrefix(cfg.KeyPrefix), store.WithTTL(cfg.TTL))
		if err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		if cfg.BreakerFailures == 0 {
			return s, nil
		}
		return store.NewBreakerStore(s, store.BreakerConfig{
			Failures:      cfg.BreakerFailures,
			Timeout:       cfg.BreakerTimeout,
			OnStateChange: store.LogStateChange(logger),
		}), nil
	default:
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidConfig,
			fmt.Sprintf("service: unknown history backend %q", cfg.Backend))
	}
}

func (r *Recommender) buildPipeline() (*pipeline.Pipeline, error) {
	if r.pipeline != nil {
		return r.pipeline, nil
	}
	if r.cfg.Rank.Pipeline != "" {
		pc, err := pipeline.LoadFromFile(r.cfg.Rank.Pipeline)
		if err != nil {
			return nil, fmt.Errorf("load pipeline %s: %w", r.cfg.Rank.Pipeline, err)
		}
		if err := config.ValidatePipelineConfig(pc); err != nil {
			return nil, err
		}
		return pc.BuildPipeline(config.DefaultFactory(), pipeline.Deps{History: r.history})
	}
	var filters []filter.Filter
	if r.history != nil {
		filters = append(filters, filter.NewExposedFilter(r.history, r.cfg.History.Window))
	}
	return rank.DefaultPipeline(r.cfg.Rank.MinSimilarity, filters...), nil
}

// Rebuild 在 cat 上拟合新快照并原子替换。进行中的请求继续使用旧快照；失败时旧快照保持不变。
func (r *Recommender) Rebuild(ctx context.Context, cat *catalog.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	space, err := feature.BuildSpace(cat, r.cfg.Space.FeatureConfig())
	r.metrics.observeRebuild(err, time.Since(start), space)
	if err != nil {
		r.logger.Error("build vector space failed", slog.String("error", err.Error()))
		return fmt.Errorf("build vector space: %w", err)
	}

	snap := &Snapshot{
		Version: uuid.NewString(),
		Space:   space,
		BuiltAt: time.Now(),
		queries: newQueryCache(r.cfg.Rank.QueryCache),
	}
	r.snapshot.Store(snap)
	r.logger.Info("vector space built",
		slog.String("version", snap.Version),
		slog.Int("items", space.Len()),
		slog.Int("vocabulary", space.TextDim()),
		slog.Int("dims", space.Dim()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Snapshot 返回当前快照。
func (r *Recommender) Snapshot() *Snapshot { return r.snapshot.Load() }

// Config 返回使用的配置。
func (r *Recommender) Config() *Config { return r.cfg }

// Recommend 为一次请求生成推荐。
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Response, error) {
	snap := r.snapshot.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotFound,
			"service: no snapshot built")
	}
	return r.recommendOn(ctx, snap, req)
}

// RecommendBatch 在同一个快照上并发处理 reqs，并发度为 rank.concurrency。
// 返回值与 reqs 一一对应；任一请求出错时返回第一个错误。
func (r *Recommender) RecommendBatch(ctx context.Context, reqs []Request) ([]*Response, error) {
	snap := r.snapshot.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeNotFound,
			"service: no snapshot built")
	}
	out := make([]*Response, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Rank.Concurrency)
	for i := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resp, err := r.recommendOn(gctx, snap, reqs[i])
			if err != nil {
				return fmt.Errorf("request #%d: %w", i, err)
			}
			out[i] = resp
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Recommender) recommendOn(ctx context.Context, snap *Snapshot, req Request) (*Response, error) {
	start := time.Now()
	results, degraded, err := r.rank(ctx, snap, req)
	r.metrics.observeRequest(err, time.Since(start), results)
	if err != nil {
		return nil, err
	}

	if len(degraded) > 0 {
		r.metrics.observeDegraded(degraded)
		r.logger.Warn("filters degraded",
			slog.String("user", req.UserID),
			slog.Any("filters", degraded))
	}
	if n := countSource(results, recall.SourcePopularity); n > 0 {
		r.logger.Debug("popularity fallback used",
			slog.String("user", req.UserID),
			slog.Int("filled", n),
			slog.Int("results", len(results)))
	}
	r.markSeen(ctx, req.UserID, results)

	return &Response{
		Version:  snap.Version,
		Results:  results,
		Degraded: degraded,
	}, nil
}

func (r *Recommender) rank(ctx context.Context, snap *Snapshot, req Request) ([]rank.Result, []string, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	query, err := r.query(snap, req)
	if err != nil {
		return nil, nil, err
	}
	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.Rank.TopK
	}
	rctx := &core.RecommendContext{
		UserID: req.UserID,
		Space:  snap.Space,
		Query:  query,
		TopK:   topK,
		Params: map[string]any{
			"text":    req.Text,
			"numeric": req.Numeric,
		},
	}
	rctx.AddExclude(req.Exclude...)

	results, err := r.ranker.RankContext(ctx, rctx)
	if err != nil {
		return nil, nil, err
	}
	var degraded []string
	if lbl, ok := rctx.GetLabel(filter.LabelDegraded); ok {
		degraded = lbl.Values()
	}
	return results, degraded, nil
}

func (r *Recommender) markSeen(ctx context.Context, userID string, results []rank.Result) {
	if !r.cfg.History.MarkSeen || r.history == nil || userID == "" || len(results) == 0 {
		return
	}
	if err := r.history.MarkSeen(ctx, userID, rank.IDs(results)...); err != nil {
		r.metrics.observeHistoryError()
		r.logger.Warn("mark seen failed",
			slog.String("user", userID),
			slog.String("store", r.history.Name()),
			slog.String("error", err.Error()))
	}
}

// Close 关闭由 NewFromConfig 创建的历史存储。
func (r *Recommender) Close() error {
	if r.owned && r.history != nil {
		return r.history.Close()
	}
	return nil
}

func countSource(results []rank.Result, source string) int {
	n := 0
	for _, res := range results {
		if res.Source == source {
			n++
		}
	}
	return n
}
