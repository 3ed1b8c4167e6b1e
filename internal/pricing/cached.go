package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/cache"
	"tcg-inventory-api/internal/model"
	"tcg-inventory-api/internal/service"
)

// CachedOracle serves repeated lookups from a PriceCache.
// Only found prices are cached, so a miss is retried on the next call.
type CachedOracle struct {
	next  service.PriceOracle
	cache cache.PriceCache
	ttl   time.Duration
	now   func() time.Time
}

// NewCachedOracle wraps next with cache.
func NewCachedOracle(next service.PriceOracle, c cache.PriceCache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: c, ttl: ttl, now: time.Now}
}

// Name reports the wrapped source.
func (o *CachedOracle) Name() string { return o.next.Name() }

// LookupLastSoldPrice checks the cache, then the wrapped oracle. Cache failures
// fall through to a direct lookup.
func (o *CachedOracle) LookupLastSoldPrice(ctx context.Context, cardName string) (decimal.Decimal, bool) {
	quote, err := o.cache.Get(ctx, cardName)
	if err == nil {
		return quote.Price, true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.WithError(err).WithField("card", cardName).Warn("[CachedOracle] Cache read failed")
	}

	price, ok := o.next.LookupLastSoldPrice(ctx, cardName)
	if !ok {
		return decimal.Zero, false
	}

	err = o.cache.Set(ctx, &model.PriceQuote{
		CardName:  cardName,
		Price:     price,
		Source:    o.next.Name(),
		FetchedAt: o.now().UTC(),
	}, o.ttl)
	if err != nil {
		log.WithError(err).WithField("card", cardName).Warn("[CachedOracle] Cache write failed")
	}
	return price, true
}

var _ service.PriceOracle = (*CachedOracle)(nil)
