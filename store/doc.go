// Package store 提供 core.HistoryStore 的实现。
//
// 示例：
//
//	var history core.HistoryStore = store.NewMemoryStore()
//	history, err := store.NewRedisStore("localhost:6379", 0, store.WithTTL(30*24*time.Hour))
package store
