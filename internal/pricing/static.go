package pricing

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tcg-inventory-api/internal/service"
)

// StaticOracle answers from a fixed price table. Names match case-insensitively.
type StaticOracle struct {
	prices map[string]decimal.Decimal
}

// NewStaticOracle creates an oracle over a copy of prices.
func NewStaticOracle(prices map[string]decimal.Decimal) *StaticOracle {
	o := &StaticOracle{prices: make(map[string]decimal.Decimal, len(prices))}
	for name, p := range prices {
		o.prices[strings.ToLower(strings.TrimSpace(name))] = p
	}
	return o
}

// ParseStaticTable parses "Charizard=75.00;Pikachu=3.5". Blank entries are skipped.
func ParseStaticTable(table string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(table, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, raw, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid price entry %q: want name=price", entry)
		}

		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid price for %q: %w", name, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("invalid price for %q: negative", name)
		}
		prices[name] = price
	}
	return prices, nil
}

// Name identifies the source.
func (o *StaticOracle) Name() string { return "static" }

// LookupLastSoldPrice returns the table price, if any.
func (o *StaticOracle) LookupLastSoldPrice(_ context.Context, cardName string) (decimal.Decimal, bool) {
	p, ok := o.prices[strings.ToLower(strings.TrimSpace(cardName))]
	return p, ok
}

var _ service.PriceOracle = (*StaticOracle)(nil)
