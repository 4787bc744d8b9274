package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a test Redis client using miniredis
func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Client{Redis: redisClient}, mr
}

func TestClient_SetGet(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	err := client.Set(ctx, "buyers:list:abc", `{"buyers":[]}`, time.Minute)
	require.NoError(t, err)

	val, err := client.Get(ctx, "buyers:list:abc")
	require.NoError(t, err)
	assert.Equal(t, `{"buyers":[]}`, val)
}

func TestClient_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)

	_, err := client.Get(context.Background(), "nope")
	assert.Equal(t, redis.Nil, err)
}

func TestClient_Delete(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k1", "v1", 0))
	require.NoError(t, client.Delete(ctx, "k1"))

	exists, err := client.Exists(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_DeletePattern(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "buyers:list:a", "1", 0))
	require.NoError(t, client.Set(ctx, "buyers:list:b", "2", 0))
	require.NoError(t, client.Set(ctx, "buyers:count", "3", 0))

	require.NoError(t, client.DeletePattern(ctx, "buyers:list:*"))

	for _, key := range []string{"buyers:list:a", "buyers:list:b"} {
		exists, err := client.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}

	exists, err := client.Exists(ctx, "buyers:count")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestClient_TTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", 5*time.Minute))

	ttl, err := client.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, ttl)

	mr.FastForward(4 * time.Minute)

	ttl, err = client.TTL(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)
}
