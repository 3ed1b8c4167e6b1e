package handler

import (
	"context"
	"net/http"
	"runtime"
	"strings"
	"time"

	"tcg-inventory-api/internal/cache"
	"tcg-inventory-api/internal/model"
	"tcg-inventory-api/pkg/apierror"
	"tcg-inventory-api/pkg/response"
)

// StatsProvider reports relational store statistics.
type StatsProvider interface {
	Stats(ctx context.Context) (*model.StoreStats, error)
}

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	store      StatsProvider
	priceCache cache.PriceCache // nil when caching is disabled
	oracle     string
	startTime  time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(store StatsProvider, priceCache cache.PriceCache, oracle string) *AdminHandler {
	return &AdminHandler{
		store:      store,
		priceCache: priceCache,
		oracle:     oracle,
		startTime:  time.Now(),
	}
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["price_oracle"] = h.oracle

	// Ledger store
	if storeStats, err := h.store.Stats(ctx); err == nil {
		stats["store"] = storeStats
	} else {
		stats["store"] = map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		}
	}

	// Price cache
	if h.priceCache != nil {
		if cacheStats, err := h.priceCache.Stats(ctx); err == nil {
			stats["price_cache"] = cacheStats
		} else {
			stats["price_cache"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["price_cache"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":      float64(memStats.Alloc) / 1024 / 1024,
		"sys_mb":        float64(memStats.Sys) / 1024 / 1024,
		"heap_inuse_mb": float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":        memStats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// ClearPriceCache handles DELETE /api/v1/admin/price-cache
func (h *AdminHandler) ClearPriceCache(w http.ResponseWriter, r *http.Request) {
	if h.priceCache != nil {
		if err := h.priceCache.Clear(r.Context()); err != nil {
			writeError(w, r, err)
			return
		}
	}
	response.NoContent(w)
}

// EvictPrice handles DELETE /api/v1/admin/price-cache/{card_name}
// so the next lookup for that card goes to the oracle again.
func (h *AdminHandler) EvictPrice(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "card_name")
	if strings.TrimSpace(name) == "" {
		writeError(w, r, apierror.BadRequest("card name is required"))
		return
	}

	if h.priceCache != nil {
		if err := h.priceCache.Delete(r.Context(), name); err != nil {
			writeError(w, r, err)
			return
		}
	}
	response.NoContent(w)
}
