package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/contentkit/core"
)

// MemoryStore 是内存实现的 HistoryStore，用于测试/开发/单机 CLI。
// 进程重启后数据丢失。
type MemoryStore struct {
	mu   sync.RWMutex
	seen map[string]map[string]time.Time // userID -> itemID -> 最近一次看过的时间
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]map[string]time.Time),
		now:  time.Now,
	}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) MarkSeen(_ context.Context, userID string, ids ...string) error {
	if userID == "" || len(ids) == 0 {
		return nil
	}
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.seen[userID]
	if !ok {
		items = make(map[string]time.Time, len(ids))
		m.seen[userID] = items
	}
	for _, id := range ids {
		items[id] = now
	}
	return nil
}

// Seen 按最近看过的时间倒序返回，时间相同按标识升序。
func (m *MemoryStore) Seen(_ context.Context, userID string, window time.Duration) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := m.seen[userID]
	var cutoff time.Time
	if window > 0 {
		cutoff = m.now().Add(-window)
	}
	out := make([]string, 0, len(items))
	for id, at := range items {
		if window > 0 && at.Before(cutoff) {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := items[out[i]], items[out[j]]
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return out[i] < out[j]
	})
	return out, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = make(map[string]map[string]time.Time)
	return nil
}

var _ core.HistoryStore = (*MemoryStore)(nil)
