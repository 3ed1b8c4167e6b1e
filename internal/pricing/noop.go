package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"tcg-inventory-api/internal/service"
)

// NoopOracle never has a price. Used when lookups are disabled.
type NoopOracle struct{}

// Name identifies the source.
func (NoopOracle) Name() string { return "none" }

// LookupLastSoldPrice always reports no price.
func (NoopOracle) LookupLastSoldPrice(context.Context, string) (decimal.Decimal, bool) {
	return decimal.Zero, false
}

var _ service.PriceOracle = NoopOracle{}
