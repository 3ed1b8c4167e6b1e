package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger event.
type TransactionType string

const (
	TransactionIn       TransactionType = "in"
	TransactionOut      TransactionType = "out"
	TransactionSell     TransactionType = "sell"
	TransactionTransfer TransactionType = "transfer"
)

// ParseTransactionType validates a stored or user supplied type.
func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionIn, TransactionOut, TransactionSell, TransactionTransfer:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

// ChangesOwner reports whether a transaction of this type moves the card to ToUserID.
// A sell only does so when a buyer is recorded.
func (t TransactionType) ChangesOwner(to *int64) bool {
	switch t {
	case TransactionTransfer:
		return true
	case TransactionSell:
		return to != nil
	}
	return false
}

// Transaction is an append-only ledger row.
type Transaction struct {
	ID         int64               `json:"id"`
	CardID     int64               `json:"card_id"`
	Type       TransactionType     `json:"type"`
	Date       time.Time           `json:"date"`
	Price      decimal.NullDecimal `json:"price"`
	FromUserID *int64              `json:"from_user_id,omitempty"`
	ToUserID   *int64              `json:"to_user_id,omitempty"`
	Notes      *string             `json:"notes,omitempty"`
}

// TransactionView is a ledger row joined with card and user names.
type TransactionView struct {
	Transaction
	CardName     string  `json:"card_name"`
	FromUsername *string `json:"from_username,omitempty"`
	ToUsername   *string `json:"to_username,omitempty"`
}

// TransactionFilter narrows a ledger query. Empty fields do not filter.
type TransactionFilter struct {
	CardName string
	Username string
}
