package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a market price observed for a card name.
type PriceQuote struct {
	CardName  string          `json:"card_name"`
	Price     decimal.Decimal `json:"price"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetched_at"`
}
