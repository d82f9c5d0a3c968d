package store

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore 在 err 非空时所有调用都失败，并记录调用次数。
type flakyStore struct {
	*MemoryStore
	err   error
	calls int
}

func (f *flakyStore) Seen(ctx context.Context, userID string, window time.Duration) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryStore.Seen(ctx, userID, window)
}

func (f *flakyStore) MarkSeen(ctx context.Context, userID string, ids ...string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.MarkSeen(ctx, userID, ids...)
}

func TestBreakerStorePassThrough(t *testing.T) {
	ctx := context.Background()
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	b := NewBreakerStore(inner, BreakerConfig{Failures: 2, Timeout: time.Hour})

	require.NoError(t, b.MarkSeen(ctx, "u1", "a"))
	ids, err := b.Seen(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids)
	assert.Equal(t, "memory", b.Name())
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerStoreOpens(t *testing.T) {
	ctx := context.Background()
	down := errors.New("connection refused")
	inner := &flakyStore{MemoryStore: NewMemoryStore(), err: down}

	var transitions []gobreaker.State
	b := NewBreakerStore(inner, BreakerConfig{
		Failures: 2,
		Timeout:  time.Hour,
		OnStateChange: func(_ string, _, to gobreaker.State) {
			transitions = append(transitions, to)
		},
	})

	_, err := b.Seen(ctx, "u1", 0)
	require.ErrorIs(t, err, down)
	assert.False(t, IsBreakerOpen(err))
	require.ErrorIs(t, b.MarkSeen(ctx, "u1", "a"), down)
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	_, err = b.Seen(ctx, "u1", 0)
	require.Error(t, err)
	assert.True(t, IsBreakerOpen(err))
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerStoreIgnoresCancellation(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), err: context.Canceled}
	b := NewBreakerStore(inner, BreakerConfig{Failures: 1, Timeout: time.Hour})

	for range 3 {
		_, err := b.Seen(context.Background(), "u1", 0)
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 3, inner.calls)
}
