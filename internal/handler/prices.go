package handler

import (
	"net/http"

	"tcg-inventory-api/pkg/response"
)

// SearchPrice handles GET /api/v1/prices/{card_name}
func (h *LedgerHandler) SearchPrice(w http.ResponseWriter, r *http.Request) {
	quote, err := h.ledger.SearchPrice(r.Context(), pathParam(r, "card_name"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, quote)
}
