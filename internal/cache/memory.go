package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"tcg-inventory-api/internal/model"
)

type cacheEntry struct {
	quote     model.PriceQuote
	expiresAt time.Time
}

func (e *cacheEntry) isExpired(now time.Time) bool {
	return !now.Before(e.expiresAt)
}

// MemoryPriceCache keeps quotes in process memory.
// Use this for the CLI, tests or single-instance deployments.
type MemoryPriceCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewMemoryPriceCache creates a memory cache that sweeps expired quotes every minute.
func NewMemoryPriceCache() *MemoryPriceCache {
	c := &MemoryPriceCache{
		entries:         make(map[string]*cacheEntry),
		now:             time.Now,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get returns a copy of the cached quote.
func (c *MemoryPriceCache) Get(ctx context.Context, cardName string) (*model.PriceQuote, error) {
	c.mu.RLock()
	entry, exists := c.entries[normalizeName(cardName)]
	c.mu.RUnlock()

	if !exists || entry.isExpired(c.now()) {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	quote := entry.quote
	return &quote, nil
}

// Set stores a copy of the quote.
func (c *MemoryPriceCache) Set(ctx context.Context, quote *model.PriceQuote, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[normalizeName(quote.CardName)] = &cacheEntry{
		quote:     *quote,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

// Delete removes a card name.
func (c *MemoryPriceCache) Delete(ctx context.Context, cardName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, normalizeName(cardName))
	return nil
}

// Clear removes all entries from the cache.
func (c *MemoryPriceCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	return nil
}

// Stats counts live entries.
func (c *MemoryPriceCache) Stats(ctx context.Context) (Stats, error) {
	now := c.now()

	c.mu.RLock()
	var live int64
	for _, e := range c.entries {
		if !e.isExpired(now) {
			live++
		}
	}
	c.mu.RUnlock()

	return Stats{
		Backend: "memory",
		Entries: live,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Close stops the background cleanup goroutine.
func (c *MemoryPriceCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
	return nil
}

func (c *MemoryPriceCache) cleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryPriceCache) removeExpired() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.isExpired(now) {
			delete(c.entries, key)
		}
	}
}

var _ PriceCache = (*MemoryPriceCache)(nil)
