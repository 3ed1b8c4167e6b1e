package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/model"
)

// scanBatch bounds each SCAN round trip when clearing or counting.
const scanBatch = 200

// RedisConfig holds connection settings for the Redis price cache.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// RedisPriceCache shares quotes between API instances through Redis.
// Each quote is a JSON string under "<prefix>:<normalized card name>" with a native TTL.
type RedisPriceCache struct {
	client    *redis.Client
	keyPrefix string

	hits   atomic.Int64
	misses atomic.Int64
}

// NewRedisPriceCache connects to Redis and verifies the connection.
func NewRedisPriceCache(cfg RedisConfig) (*RedisPriceCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := NewRedisPriceCacheWithClient(client, cfg.KeyPrefix)
	log.Printf("[RedisPriceCache] Connected - DB:%d, prefix:%s", cfg.DB, c.keyPrefix)
	return c, nil
}

// NewRedisPriceCacheWithClient wraps an existing client.
func NewRedisPriceCacheWithClient(client *redis.Client, keyPrefix string) *RedisPriceCache {
	if keyPrefix == "" {
		keyPrefix = "tcg:price"
	}
	return &RedisPriceCache{client: client, keyPrefix: keyPrefix}
}

func (c *RedisPriceCache) key(cardName string) string {
	return c.keyPrefix + ":" + normalizeName(cardName)
}

// Get reads and decodes a quote.
func (c *RedisPriceCache) Get(ctx context.Context, cardName string) (*model.PriceQuote, error) {
	data, err := c.client.Get(ctx, c.key(cardName)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var quote model.PriceQuote
	if err := json.Unmarshal(data, &quote); err != nil {
		// unreadable entries are dropped and treated as a miss
		log.Printf("[RedisPriceCache] Error unmarshaling %s: %v", cardName, err)
		c.client.Del(ctx, c.key(cardName))
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}

	c.hits.Add(1)
	return &quote, nil
}

// Set encodes a quote and stores it with ttl.
func (c *RedisPriceCache) Set(ctx context.Context, quote *model.PriceQuote, ttl time.Duration) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(quote.CardName), data, ttl).Err()
}

// Delete removes a card name.
func (c *RedisPriceCache) Delete(ctx context.Context, cardName string) error {
	return c.client.Del(ctx, c.key(cardName)).Err()
}

// Clear deletes every key under the prefix.
func (c *RedisPriceCache) Clear(ctx context.Context) error {
	deleted := 0
	err := c.scan(ctx, func(keys []string) error {
		deleted += len(keys)
		return c.client.Del(ctx, keys...).Err()
	})
	if err != nil {
		return err
	}

	log.Printf("[RedisPriceCache] Cleared %d quotes", deleted)
	return nil
}

// Stats counts keys under the prefix.
func (c *RedisPriceCache) Stats(ctx context.Context) (Stats, error) {
	var entries int64
	err := c.scan(ctx, func(keys []string) error {
		entries += int64(len(keys))
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		Backend: "redis",
		Entries: entries,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

func (c *RedisPriceCache) scan(ctx context.Context, fn func(keys []string) error) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.keyPrefix+":*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// Close closes the Redis client.
func (c *RedisPriceCache) Close() error {
	return c.client.Close()
}

var _ PriceCache = (*RedisPriceCache)(nil)
