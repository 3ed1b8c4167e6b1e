package handler

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"tcg-inventory-api/internal/service"
	"tcg-inventory-api/pkg/response"
)

// LedgerHandler exposes the ownership engine over HTTP.
type LedgerHandler struct {
	ledger *service.LedgerService
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(ledger *service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// RegisterUserRequest is the body of POST /api/v1/users.
type RegisterUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// RegisterUser handles POST /api/v1/users
func (h *LedgerHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if apiErr := required(map[string]string{"username": req.Username}); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	user, err := h.ledger.RegisterUser(r.Context(), req.Username, req.Email)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, user)
}

// GetUser handles GET /api/v1/users/{username}
func (h *LedgerHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.ledger.FindUser(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, user)
}

// ListInventory handles GET /api/v1/users/{username}/inventory
func (h *LedgerHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	cards, err := h.ledger.ListInventory(r.Context(), pathParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.List(w, cards)
}

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if unescaped, err := url.PathUnescape(v); err == nil {
		return unescaped
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
