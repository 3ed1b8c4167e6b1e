package handler

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"tcg-inventory-api/internal/service"
	"tcg-inventory-api/pkg/apierror"
	"tcg-inventory-api/pkg/response"
)

// AddCardRequest is the body of POST /api/v1/cards.
type AddCardRequest struct {
	Name          string           `json:"name"`
	SetName       string           `json:"set_name"`
	Condition     string           `json:"condition"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	Owner         string           `json:"owner"`
}

// SellCardRequest is the body of POST /api/v1/cards/sell.
// Price may be omitted to use the market price.
type SellCardRequest struct {
	CardName string           `json:"card_name"`
	Seller   string           `json:"seller"`
	Buyer    string           `json:"buyer"`
	Price    *decimal.Decimal `json:"price"`
	Notes    string           `json:"notes"`
}

// TransferCardRequest is the body of POST /api/v1/cards/transfer.
type TransferCardRequest struct {
	CardName string `json:"card_name"`
	From     string `json:"from"`
	To       string `json:"to"`
	Notes    string `json:"notes"`
}

// AddCard handles POST /api/v1/cards
func (h *LedgerHandler) AddCard(w http.ResponseWriter, r *http.Request) {
	var req AddCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if apiErr := required(map[string]string{"name": req.Name, "owner": req.Owner}); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}
	if req.PurchasePrice == nil {
		writeError(w, r, apierror.ValidationError("missing required fields",
			apierror.FieldError{Field: "purchase_price", Message: "is required"}))
		return
	}

	card, err := h.ledger.AddCard(r.Context(), service.AddCardInput{
		Name:          req.Name,
		SetName:       req.SetName,
		Condition:     req.Condition,
		PurchasePrice: *req.PurchasePrice,
		Owner:         req.Owner,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, card)
}

// SellCard handles POST /api/v1/cards/sell
func (h *LedgerHandler) SellCard(w http.ResponseWriter, r *http.Request) {
	var req SellCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if apiErr := required(map[string]string{"card_name": req.CardName, "seller": req.Seller}); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	tx, err := h.ledger.SellCard(r.Context(), service.SellCardInput{
		CardName: req.CardName,
		Seller:   req.Seller,
		Buyer:    req.Buyer,
		Price:    req.Price,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, tx)
}

// TransferCard handles POST /api/v1/cards/transfer
func (h *LedgerHandler) TransferCard(w http.ResponseWriter, r *http.Request) {
	var req TransferCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if apiErr := required(map[string]string{"card_name": req.CardName, "from": req.From, "to": req.To}); apiErr != nil {
		writeError(w, r, apiErr)
		return
	}

	tx, err := h.ledger.TransferCard(r.Context(), service.TransferCardInput{
		CardName: req.CardName,
		From:     req.From,
		To:       req.To,
		Notes:    req.Notes,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, tx)
}

// CardHistory handles GET /api/v1/cards/{id}/history
func (h *LedgerHandler) CardHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	history, err := h.ledger.CardHistory(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.List(w, history)
}

// AuditCard handles GET /api/v1/cards/{id}/audit
func (h *LedgerHandler) AuditCard(w http.ResponseWriter, r *http.Request) {
	id, ok := cardID(w, r)
	if !ok {
		return
	}

	report, err := h.ledger.AuditCard(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, report)
}

func cardID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(pathParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, apierror.BadRequest("card id must be a positive integer"))
		return 0, false
	}
	return id, true
}
