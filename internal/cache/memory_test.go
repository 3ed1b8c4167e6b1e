package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcg-inventory-api/internal/model"
)

func newTestMemoryCache(t *testing.T) (*MemoryPriceCache, *time.Time) {
	t.Helper()
	c := NewMemoryPriceCache()
	t.Cleanup(func() { _ = c.Close() })

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func quote(name, price string) *model.PriceQuote {
	return &model.PriceQuote{CardName: name, Price: decimal.RequireFromString(price), Source: "test"}
}

func TestMemoryPriceCache_GetSet(t *testing.T) {
	c, _ := newTestMemoryCache(t)
	ctx := context.Background()

	_, err := c.Get(ctx, "Charizard")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, quote("Charizard", "75.00"), time.Hour))

	got, err := c.Get(ctx, "  charizard ")
	require.NoError(t, err)
	assert.Equal(t, "Charizard", got.CardName)
	assert.True(t, decimal.RequireFromString("75").Equal(got.Price))

	// returned quotes are copies
	got.Price = decimal.Zero
	again, err := c.Get(ctx, "Charizard")
	require.NoError(t, err)
	assert.False(t, again.Price.IsZero())

	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Backend: "memory", Entries: 1, Hits: 2, Misses: 1}, stats)
}

func TestMemoryPriceCache_Expiry(t *testing.T) {
	c, now := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, quote("Mew", "10"), time.Minute))
	*now = now.Add(59 * time.Second)
	_, err := c.Get(ctx, "Mew")
	require.NoError(t, err)

	*now = now.Add(time.Second)
	_, err = c.Get(ctx, "Mew")
	require.ErrorIs(t, err, ErrCacheMiss)

	c.removeExpired()
	c.mu.RLock()
	assert.Empty(t, c.entries)
	c.mu.RUnlock()
}

func TestMemoryPriceCache_DeleteAndClear(t *testing.T) {
	c, _ := newTestMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, quote("Mew", "10"), time.Hour))
	require.NoError(t, c.Set(ctx, quote("Abra", "1"), time.Hour))

	require.NoError(t, c.Delete(ctx, "MEW"))
	_, err := c.Get(ctx, "Mew")
	require.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Clear(ctx))
	stats, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
