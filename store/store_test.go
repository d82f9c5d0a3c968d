package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSeen(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	require.NoError(t, s.MarkSeen(ctx, "u1", "b", "a"))
	now = base.Add(time.Hour)
	require.NoError(t, s.MarkSeen(ctx, "u1", "c"))
	require.NoError(t, s.MarkSeen(ctx, "", "ignored"))

	ids, err := s.Seen(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, ids)

	ids, err = s.Seen(ctx, "u1", 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	ids, err = s.Seen(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestMemoryStoreMarkSeenRefreshes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base
	s.now = func() time.Time { return now }

	require.NoError(t, s.MarkSeen(ctx, "u", "x"))
	now = base.Add(48 * time.Hour)
	require.NoError(t, s.MarkSeen(ctx, "u", "x"))

	ids, err := s.Seen(ctx, "u", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids)
	require.NoError(t, s.Close())
}

// 需要真实 Redis：CONTENTKIT_REDIS_ADDR=localhost:6379 go test ./store/
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("CONTENTKIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("CONTENTKIT_REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(addr, 0, WithKeyPrefix("contentkit:test:seen"), WithTTL(time.Minute))
	require.NoError(t, err)
	defer s.Close()

	user := "u-" + time.Now().Format("150405.000000000")
	require.NoError(t, s.MarkSeen(ctx, user, "m1", "m2"))

	ids, err := s.Seen(ctx, user, time.Hour)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, ids)
	assert.Equal(t, "redis", s.Name())
}
