package marker

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreEmptyMarker(t *testing.T) {
	store := newRedisStore(t)

	date, err := store.LastResetDate(context.Background(), "st-1")
	require.NoError(t, err)
	require.Empty(t, date)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetLastResetDate(ctx, "st-1", "2026-08-30"))

	date, err := store.LastResetDate(ctx, "st-1")
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", date)

	// Stations are independent.
	other, err := store.LastResetDate(ctx, "st-2")
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	date, err := store.LastResetDate(ctx, "st-1")
	require.NoError(t, err)
	require.Empty(t, date)

	require.NoError(t, store.SetLastResetDate(ctx, "st-1", "2026-08-30"))
	date, err = store.LastResetDate(ctx, "st-1")
	require.NoError(t, err)
	require.Equal(t, "2026-08-30", date)
}
