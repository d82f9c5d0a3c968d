package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/contentkit/core"
)

var _ core.HistoryStore = (*BreakerStore)(nil)

// BreakerConfig 配置历史存储的熔断器。
type BreakerConfig struct {
	// Failures 是连续失败多少次后打开熔断器
	Failures uint32
	// Timeout 是打开状态持续多久后进入半开
	Timeout time.Duration
	// Interval 是关闭状态下计数清零的周期，0 表示不清零
	Interval time.Duration
	// OnStateChange 在状态切换时回调，可为空
	OnStateChange func(name string, from, to gobreaker.State)
}

// BreakerStore 用熔断器包装 HistoryStore。
// 后端（通常是 Redis）持续不可用时快速失败，由 filter 侧按降级处理，不拖慢请求。
type BreakerStore struct {
	inner core.HistoryStore
	cb    *gobreaker.CircuitBreaker[[]string]
}

// NewBreakerStore 创建带熔断的 HistoryStore。Failures 为 0 时按 5 处理。
func NewBreakerStore(inner core.HistoryStore, cfg BreakerConfig) *BreakerStore {
	failures := cfg.Failures
	if failures == 0 {
		failures = 5
	}
	name := "history-" + inner.Name()
	return &BreakerStore{
		inner: inner,
		cb: gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: cfg.OnStateChange,
			// 调用方取消不算后端故障
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
			},
		}),
	}
}

func (b *BreakerStore) Name() string { return b.inner.Name() }

// State 返回熔断器当前状态。
func (b *BreakerStore) State() gobreaker.State { return b.cb.State() }

func (b *BreakerStore) Seen(ctx context.Context, userID string, window time.Duration) ([]string, error) {
	return b.cb.Execute(func() ([]string, error) {
		return b.inner.Seen(ctx, userID, window)
	})
}

func (b *BreakerStore) MarkSeen(ctx context.Context, userID string, ids ...string) error {
	_, err := b.cb.Execute(func() ([]string, error) {
		return nil, b.inner.MarkSeen(ctx, userID, ids...)
	})
	return err
}

func (b *BreakerStore) Close() error { return b.inner.Close() }

// IsBreakerOpen 判断错误是否来自熔断器拒绝（而非后端本身）。
func IsBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// LogStateChange 返回把状态切换写入 logger 的回调。
func LogStateChange(logger *slog.Logger) func(name string, from, to gobreaker.State) {
	return func(name string, from, to gobreaker.State) {
		logger.Warn("history breaker state changed",
			slog.String("breaker", name),
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	}
}
