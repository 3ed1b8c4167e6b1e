package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T, prefix string) (*RedisPriceCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)

	c := NewRedisPriceCacheWithClient(redis.NewClient(&redis.Options{Addr: server.Addr()}), prefix)
	t.Cleanup(func() { _ = c.Close() })
	return c, server
}

func TestRedisPriceCache_Key(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	c := NewRedisPriceCacheWithClient(client, "")
	assert.Equal(t, "tcg:price:dark charizard", c.key(" Dark Charizard"))

	c = NewRedisPriceCacheWithClient(client, "shop:prices")
	assert.Equal(t, "shop:prices:mew", c.key("Mew"))
}

func TestNewRedisPriceCache_Unreachable(t *testing.T) {
	_, err := NewRedisPriceCache(RedisConfig{Addr: "127.0.0.1:1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestNewRedisPriceCache_Connects(t *testing.T) {
	server := miniredis.RunT(t)

	c, err := NewRedisPriceCache(RedisConfig{Addr: server.Addr(), KeyPrefix: "shop"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Set(context.Background(), quote("Mew", "12"), time.Minute))
	assert.True(t, server.Exists("shop:mew"))
}

func TestRedisPriceCache_GetSet(t *testing.T) {
	c, server := newTestRedisCache(t, "")
	ctx := context.Background()

	_, err := c.Get(ctx, "Charizard")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, quote("Charizard", "75.25"), 10*time.Minute))
	assert.Equal(t, 10*time.Minute, server.TTL("tcg:price:charizard"))

	got, err := c.Get(ctx, "  CHARIZARD ")
	require.NoError(t, err)
	assert.Equal(t, "Charizard", got.CardName)
	assert.Equal(t, "test", got.Source)
	assert.Equal(t, "75.25", got.Price.String())

	require.NoError(t, c.Delete(ctx, "charizard"))
	_, err = c.Get(ctx, "Charizard")
	require.ErrorIs(t, err, ErrCacheMiss)

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, "redis", stats.Backend)
	assert.EqualValues(t, 1, stats.Hits)
	assert.EqualValues(t, 2, stats.Misses)
}

func TestRedisPriceCache_Expiry(t *testing.T) {
	c, server := newTestRedisCache(t, "")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, quote("Mew", "12"), time.Minute))

	server.FastForward(59 * time.Second)
	_, err := c.Get(ctx, "Mew")
	require.NoError(t, err)

	server.FastForward(2 * time.Second)
	_, err = c.Get(ctx, "Mew")
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisPriceCache_UnreadableEntryIsDropped(t *testing.T) {
	c, server := newTestRedisCache(t, "")
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
	}{
		{"truncated json", `{"card_name":"Mew","price":`},
		{"not json", "12.50"},
		{"bad price", `{"card_name":"Mew","price":"twelve"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, server.Set("tcg:price:mew", tt.value))

			_, err := c.Get(ctx, "Mew")
			require.ErrorIs(t, err, ErrCacheMiss)
			assert.False(t, server.Exists("tcg:price:mew"))
		})
	}
}

func TestRedisPriceCache_ClearAndStatsOnlyTouchPrefix(t *testing.T) {
	c, server := newTestRedisCache(t, "tcg:price")
	ctx := context.Background()

	// more keys than one SCAN batch
	for i := 0; i < scanBatch+5; i++ {
		require.NoError(t, c.Set(ctx, quote(fmt.Sprintf("card %d", i), "1"), time.Hour))
	}
	require.NoError(t, server.Set("tcg:pricelist", "keep"))
	require.NoError(t, server.Set("session:alice", "keep"))
	require.NoError(t, server.Set("shop:tcg:price:mew", "keep"))

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, scanBatch+5, stats.Entries)

	require.NoError(t, c.Clear(ctx))

	stats, err = c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
	assert.ElementsMatch(t, []string{"session:alice", "shop:tcg:price:mew", "tcg:pricelist"}, server.Keys())
}

func TestRedisPriceCache_ServerErrorIsNotAMiss(t *testing.T) {
	c, server := newTestRedisCache(t, "")
	server.Close()

	_, err := c.Get(context.Background(), "Mew")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
