package cache

import (
	"context"
	"strings"
	"time"

	"tcg-inventory-api/internal/model"
)

// PriceCache stores oracle results by card name.
// Memory and Redis implementations are interchangeable behind it.
type PriceCache interface {
	// Get returns the cached quote for a card name. Returns ErrCacheMiss if absent or expired.
	Get(ctx context.Context, cardName string) (*model.PriceQuote, error)

	// Set stores a quote under its card name for ttl.
	Set(ctx context.Context, quote *model.PriceQuote, ttl time.Duration) error

	// Delete removes one card name.
	Delete(ctx context.Context, cardName string) error

	// Clear removes all quotes.
	Clear(ctx context.Context) error

	// Stats reports size and hit counters.
	Stats(ctx context.Context) (Stats, error)

	// Close releases background resources.
	Close() error
}

// Stats describes cache usage for the admin view.
type Stats struct {
	Backend string `json:"backend"`
	Entries int64  `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

// Common cache errors
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)

// normalizeName folds case and surrounding space so "Charizard " and "charizard" share an entry.
func normalizeName(cardName string) string {
	return strings.ToLower(strings.TrimSpace(cardName))
}
