package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisKVStore(t *testing.T) (*miniredis.Miniredis, *RedisKVStore) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, NewRedisKVStore(client)
}

func TestRedisKVStore_SetAndGet(t *testing.T) {
	_, kv := setupRedisKVStore(t)
	ctx := context.Background()

	err := kv.Set(ctx, "caresync:patient:p1:realtime", `{"hr":75}`, 30*time.Second)
	require.NoError(t, err)

	val, err := kv.Get(ctx, "caresync:patient:p1:realtime")
	require.NoError(t, err)
	assert.Equal(t, `{"hr":75}`, val)
}

func TestRedisKVStore_GetMissingKey(t *testing.T) {
	_, kv := setupRedisKVStore(t)

	_, err := kv.Get(context.Background(), "no-such-key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisKVStore_TTLExpiry(t *testing.T) {
	mr, kv := setupRedisKVStore(t)
	ctx := context.Background()

	err := kv.Set(ctx, "key", "value", 10*time.Second)
	require.NoError(t, err)

	// miniredis 手动推进时钟
	mr.FastForward(11 * time.Second)

	_, err = kv.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
