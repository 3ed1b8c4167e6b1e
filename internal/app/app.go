// Package app builds the ledger's runtime graph from configuration.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/cache"
	"tcg-inventory-api/internal/config"
	"tcg-inventory-api/internal/pricing"
	"tcg-inventory-api/internal/repository"
	"tcg-inventory-api/internal/service"
)

// App holds the wired components shared by the API server and the CLI.
type App struct {
	Config     *config.Config
	Store      *repository.SQLStore
	PriceCache cache.PriceCache // nil when CACHE_TYPE=none
	Oracle     service.PriceOracle
	Ledger     *service.LedgerService
	Auditor    *service.AuditScheduler // nil when AUDIT_INTERVAL=0
}

// New opens the store, builds the price oracle and the ledger service.
// Dependencies are passed explicitly, nothing is global.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.Store.Type == "" || cfg.Store.Type == "sqlite" {
		if err := ensureDir(cfg.Store.Path); err != nil {
			return nil, err
		}
	}

	store, err := repository.OpenSQLStore(ctx, cfg.Store.Type, cfg.Store.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &App{Config: cfg, Store: store}

	a.PriceCache = NewPriceCache(cfg.Cache)

	oracle, err := NewOracle(cfg.Pricing)
	if err != nil {
		a.Close()
		return nil, err
	}
	if a.PriceCache != nil {
		oracle = pricing.NewCachedOracle(oracle, a.PriceCache, cfg.Cache.TTL)
	}
	a.Oracle = oracle

	a.Ledger = service.NewLedgerService(store, oracle)

	if cfg.Audit.Interval > 0 {
		a.Auditor = service.NewAuditScheduler(a.Ledger, cfg.Audit.Interval)
	}

	log.WithFields(log.Fields{
		"store":  cfg.Store.Type,
		"oracle": oracle.Name(),
		"cache":  cfg.Cache.Type,
	}).Info("[App] Initialized")
	return a, nil
}

// NewOracle selects the price source named by PRICE_ORACLE.
func NewOracle(cfg config.PricingConfig) (service.PriceOracle, error) {
	switch cfg.Oracle {
	case "", "ebay":
		return pricing.NewEbayOracle(cfg.EbayBaseURL, cfg.Timeout), nil
	case "static":
		prices, err := pricing.ParseStaticTable(cfg.StaticTable)
		if err != nil {
			return nil, fmt.Errorf("failed to parse PRICE_STATIC_TABLE: %w", err)
		}
		return pricing.NewStaticOracle(prices), nil
	case "none":
		return pricing.NoopOracle{}, nil
	}
	return nil, fmt.Errorf("unsupported price oracle %q", cfg.Oracle)
}

// NewPriceCache builds the configured cache. An unreachable Redis falls back
// to the memory cache with a warning.
func NewPriceCache(cfg config.CacheConfig) cache.PriceCache {
	switch cfg.Type {
	case "none":
		return nil
	case "redis":
		redisCache, err := cache.NewRedisPriceCache(cache.RedisConfig{
			Addr:      cfg.RedisAddress(),
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.RedisKeyPrefix,
		})
		if err == nil {
			return redisCache
		}
		log.Warnf("[App] Redis price cache unavailable, using memory: %v", err)
	}
	return cache.NewMemoryPriceCache()
}

// Close stops background work and releases the cache and the store.
func (a *App) Close() error {
	if a.Auditor != nil {
		a.Auditor.Stop()
	}
	if a.PriceCache != nil {
		if err := a.PriceCache.Close(); err != nil {
			log.Warnf("[App] Error closing price cache: %v", err)
		}
	}
	return a.Store.Close()
}

func ensureDir(dbPath string) error {
	if dbPath == "" || dbPath == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}
