package store

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/contentkit/core"
)

// DefaultHistoryPrefix 是浏览历史的 key 前缀，实际 key 为 {prefix}:{userID}。
const DefaultHistoryPrefix = "user:seen"

// RedisStore 是 Redis 实现的 HistoryStore。
// 每个用户一个有序集合，member 为物品标识，score 为写入时的 unix 秒。
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption 配置 RedisStore。
type RedisOption func(*RedisStore)

// WithKeyPrefix 覆盖默认 key 前缀。
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithTTL 为每个用户的历史 key 设置过期时间，每次写入时刷新。
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *RedisStore) { r.ttl = ttl }
}

func NewRedisStore(addr string, db int, opts ...RedisOption) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient 使用已有的 client，便于共享连接池。
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client, prefix: DefaultHistoryPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) key(userID string) string {
	return r.prefix + ":" + userID
}

func (r *RedisStore) MarkSeen(ctx context.Context, userID string, ids ...string) error {
	if userID == "" || len(ids) == 0 {
		return nil
	}
	now := float64(time.Now().Unix())
	members := make([]redis.Z, len(ids))
	for i, id := range ids {
		members[i] = redis.Z{Score: now, Member: id}
	}

	key := r.key(userID)
	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, members...)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Seen 按最近看过的时间倒序返回。
func (r *RedisStore) Seen(ctx context.Context, userID string, window time.Duration) ([]string, error) {
	lower := "-inf"
	if window > 0 {
		lower = strconv.FormatInt(time.Now().Add(-window).Unix(), 10)
	}
	ids, err := r.client.ZRevRangeByScore(ctx, r.key(userID), &redis.ZRangeBy{
		Min: lower,
		Max: "+inf",
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	return ids, err
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

var _ core.HistoryStore = (*RedisStore)(nil)
