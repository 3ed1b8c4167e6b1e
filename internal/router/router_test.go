package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcg-inventory-api/internal/cache"
	"tcg-inventory-api/internal/handler"
	"tcg-inventory-api/internal/pricing"
	"tcg-inventory-api/internal/repository"
	"tcg-inventory-api/internal/service"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Count int `json:"count"`
	} `json:"meta"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

type testAPI struct {
	t      *testing.T
	server *httptest.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := repository.OpenSQLStore(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	priceCache := cache.NewMemoryPriceCache()
	t.Cleanup(func() { _ = priceCache.Close() })

	oracle := pricing.NewStaticOracle(map[string]decimal.Decimal{"Pikachu": decimal.RequireFromString("3.50")})
	ledger := service.NewLedgerService(store, pricing.NewCachedOracle(oracle, priceCache, time.Hour))

	srv := httptest.NewServer(New(Config{
		Handler:       handler.New(store, "tcg-inventory", "test"),
		LedgerHandler: handler.NewLedgerHandler(ledger),
		AdminHandler:  handler.NewAdminHandler(store, priceCache, oracle.Name()),
	}))
	t.Cleanup(srv.Close)

	return &testAPI{t: t, server: srv}
}

func (a *testAPI) do(method, path string, body any) (int, envelope) {
	a.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, a.server.URL+path, &buf)
	require.NoError(a.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func (a *testAPI) mustDo(method, path string, body any, wantStatus int) envelope {
	a.t.Helper()
	status, env := a.do(method, path, body)
	require.Equal(a.t, wantStatus, status, "%s %s: %+v", method, path, env.Error)
	return env
}

func TestLedgerFlow(t *testing.T) {
	api := newTestAPI(t)

	api.mustDo(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice", "email": "a@example.com"}, http.StatusCreated)
	api.mustDo(http.MethodPost, "/api/v1/users", map[string]string{"username": "bob"}, http.StatusCreated)

	env := api.mustDo(http.MethodPost, "/api/v1/cards", map[string]any{
		"name": "Charizard", "set_name": "Base", "condition": "NM", "purchase_price": 50.0, "owner": "alice",
	}, http.StatusCreated)
	var card struct {
		ID      int64  `json:"id"`
		OwnerID int64  `json:"owner_id"`
		Price   string `json:"purchase_price"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.Equal(t, "50", card.Price)

	env = api.mustDo(http.MethodPost, "/api/v1/cards/sell", map[string]any{
		"card_name": "Charizard", "seller": "alice", "buyer": "bob", "price": "75.00",
	}, http.StatusOK)
	var sale struct {
		Type  string `json:"type"`
		Price string `json:"price"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sale))
	assert.Equal(t, "sell", sale.Type)
	assert.Equal(t, "75", sale.Price)

	env = api.mustDo(http.MethodGet, "/api/v1/users/bob/inventory", nil, http.StatusOK)
	assert.Equal(t, 1, env.Meta.Count)

	api.mustDo(http.MethodPost, "/api/v1/cards/transfer", map[string]any{
		"card_name": "Charizard", "from": "bob", "to": "alice",
	}, http.StatusOK)

	env = api.mustDo(http.MethodGet, "/api/v1/transactions?card=Charizard&user=bob", nil, http.StatusOK)
	assert.Equal(t, 2, env.Meta.Count)

	env = api.mustDo(http.MethodGet, "/api/v1/cards/1/history", nil, http.StatusOK)
	assert.Equal(t, 3, env.Meta.Count)

	env = api.mustDo(http.MethodGet, "/api/v1/cards/1/audit", nil, http.StatusOK)
	var report struct {
		Consistent bool `json:"consistent"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Consistent)
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)
	api.mustDo(http.MethodPost, "/api/v1/users", map[string]string{"username": "alice"}, http.StatusCreated)
	api.mustDo(http.MethodPost, "/api/v1/cards", map[string]any{
		"name": "Charizard", "purchase_price": "50", "owner": "alice",
	}, http.StatusCreated)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"duplicate user", http.MethodPost, "/api/v1/users", map[string]string{"username": "alice"}, http.StatusConflict, "DUPLICATE_IDENTITY"},
		{"missing username", http.MethodPost, "/api/v1/users", map[string]string{}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown field", http.MethodPost, "/api/v1/users", map[string]string{"user": "x"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown user", http.MethodGet, "/api/v1/users/ghost", nil, http.StatusNotFound, "UNKNOWN_USER"},
		{"negative price", http.MethodPost, "/api/v1/cards", map[string]any{"name": "Mew", "purchase_price": -1, "owner": "alice"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"sub-cent price", http.MethodPost, "/api/v1/cards", map[string]any{"name": "Mew", "purchase_price": "1.005", "owner": "alice"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"price too large", http.MethodPost, "/api/v1/cards", map[string]any{"name": "Mew", "purchase_price": "1000000000000", "owner": "alice"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing price", http.MethodPost, "/api/v1/cards", map[string]any{"name": "Mew", "owner": "alice"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"card not owned", http.MethodPost, "/api/v1/cards/transfer", map[string]any{"card_name": "Mew", "from": "alice", "to": "alice"}, http.StatusNotFound, "CARD_NOT_FOUND"},
		{"price unavailable", http.MethodPost, "/api/v1/cards/sell", map[string]any{"card_name": "Charizard", "seller": "alice"}, http.StatusUnprocessableEntity, "PRICE_UNAVAILABLE"},
		{"bad card id", http.MethodGet, "/api/v1/cards/abc/history", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing card", http.MethodGet, "/api/v1/cards/99/audit", nil, http.StatusNotFound, "CARD_NOT_FOUND"},
		{"no route", http.MethodGet, "/api/v2/nothing", nil, http.StatusNotFound, "NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status)
			require.NotNil(t, env.Error)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}
}

func TestPrices(t *testing.T) {
	api := newTestAPI(t)

	env := api.mustDo(http.MethodGet, "/api/v1/prices/pikachu", nil, http.StatusOK)
	var quote struct {
		Price  string `json:"price"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &quote))
	assert.Equal(t, "3.5", quote.Price)
	assert.Equal(t, "static", quote.Source)

	api.mustDo(http.MethodGet, "/api/v1/prices/Dark%20Charizard", nil, http.StatusUnprocessableEntity)

	type adminStats struct {
		Store struct {
			Driver string `json:"driver"`
		} `json:"store"`
		PriceCache cache.Stats `json:"price_cache"`
	}
	readStats := func() adminStats {
		env := api.mustDo(http.MethodGet, "/api/v1/admin/stats", nil, http.StatusOK)
		var stats adminStats
		require.NoError(t, json.Unmarshal(env.Data, &stats))
		return stats
	}

	stats := readStats()
	assert.Equal(t, "sqlite", stats.Store.Driver)
	assert.Equal(t, "memory", stats.PriceCache.Backend)
	assert.EqualValues(t, 1, stats.PriceCache.Entries)

	api.mustDo(http.MethodDelete, "/api/v1/admin/price-cache/%20PIKACHU", nil, http.StatusNoContent)
	assert.Zero(t, readStats().PriceCache.Entries)

	api.mustDo(http.MethodGet, "/api/v1/prices/pikachu", nil, http.StatusOK)
	assert.EqualValues(t, 1, readStats().PriceCache.Entries)

	api.mustDo(http.MethodDelete, "/api/v1/admin/price-cache", nil, http.StatusNoContent)
	assert.Zero(t, readStats().PriceCache.Entries)
}

func TestProbes(t *testing.T) {
	api := newTestAPI(t)

	env := api.mustDo(http.MethodGet, "/api/v1/ready", nil, http.StatusOK)
	var ready handler.ReadyResponse
	require.NoError(t, json.Unmarshal(env.Data, &ready))
	assert.True(t, ready.Ready)
	assert.Len(t, ready.Checks, 2)

	api.mustDo(http.MethodGet, "/api/v1/health", nil, http.StatusOK)
	api.mustDo(http.MethodGet, "/api/status", nil, http.StatusOK)
}
