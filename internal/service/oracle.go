package service

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle looks up the last sold market price for a card name.
// Absence is a normal result: implementations log failures and return false instead of erroring.
type PriceOracle interface {
	LookupLastSoldPrice(ctx context.Context, cardName string) (decimal.Decimal, bool)

	// Name identifies the price source in quotes and logs.
	Name() string
}
