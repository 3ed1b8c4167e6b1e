package handler

import (
	"net/http"

	"tcg-inventory-api/internal/model"
	"tcg-inventory-api/pkg/response"
)

// QueryTransactions handles GET /api/v1/transactions?card=&user=
func (h *LedgerHandler) QueryTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.ledger.QueryTransactions(r.Context(), model.TransactionFilter{
		CardName: q.Get("card"),
		Username: q.Get("user"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.List(w, rows)
}
