package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcg-inventory-api/internal/cache"
	"tcg-inventory-api/internal/model"
)

type countingOracle struct {
	prices map[string]decimal.Decimal
	calls  int
}

func (o *countingOracle) Name() string { return "counting" }

func (o *countingOracle) LookupLastSoldPrice(_ context.Context, name string) (decimal.Decimal, bool) {
	o.calls++
	p, ok := o.prices[name]
	return p, ok
}

func TestCachedOracle(t *testing.T) {
	c := cache.NewMemoryPriceCache()
	defer c.Close()
	next := &countingOracle{prices: map[string]decimal.Decimal{"Charizard": decimal.NewFromInt(75)}}
	o := NewCachedOracle(next, c, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		p, ok := o.LookupLastSoldPrice(ctx, "Charizard")
		require.True(t, ok)
		assert.True(t, decimal.NewFromInt(75).Equal(p))
	}
	assert.Equal(t, 1, next.calls)

	q, err := c.Get(ctx, "Charizard")
	require.NoError(t, err)
	assert.Equal(t, "counting", q.Source)

	// misses are not cached
	_, ok := o.LookupLastSoldPrice(ctx, "Mew")
	assert.False(t, ok)
	_, ok = o.LookupLastSoldPrice(ctx, "Mew")
	assert.False(t, ok)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, "counting", o.Name())
}

type brokenCache struct{ cache.PriceCache }

func (brokenCache) Get(context.Context, string) (*model.PriceQuote, error) {
	return nil, errors.New("connection refused")
}

func (brokenCache) Set(context.Context, *model.PriceQuote, time.Duration) error {
	return errors.New("connection refused")
}

func TestCachedOracle_CacheFailureFallsThrough(t *testing.T) {
	next := &countingOracle{prices: map[string]decimal.Decimal{"Mew": decimal.NewFromInt(10)}}
	o := NewCachedOracle(next, brokenCache{}, time.Hour)

	p, ok := o.LookupLastSoldPrice(context.Background(), "Mew")
	require.True(t, ok)
	assert.Equal(t, "10", p.String())
	assert.Equal(t, 1, next.calls)
}
