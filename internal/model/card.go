package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a single physical card held by exactly one owner.
type Card struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SetName       string          `json:"set_name"`
	Condition     string          `json:"condition"` // e.g. NM, LP, MP
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	OwnerID       int64           `json:"owner_id"`
	CreatedAt     time.Time       `json:"created_at"`
}
