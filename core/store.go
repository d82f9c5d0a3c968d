package core

import (
	"context"
	"time"
)

// HistoryStore 是用户浏览历史的领域接口，用于“看过的不再推荐”。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖任何存储客户端
//
// 实现：
//   - store.MemoryStore：进程内，测试与单机 CLI 使用
//   - store.RedisStore：基于有序集合，score 为写入时间
type HistoryStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Seen 返回用户在 window 内看过的物品标识；window <= 0 表示不限时间
	Seen(ctx context.Context, userID string, window time.Duration) ([]string, error)

	// MarkSeen 记录用户看过的物品
	MarkSeen(ctx context.Context, userID string, ids ...string) error

	// Close 关闭连接/释放资源
	Close() error
}
