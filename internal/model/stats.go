package model

import "time"

// StoreStats summarizes the relational store.
type StoreStats struct {
	Driver            string     `json:"driver"`
	Users             int64      `json:"users"`
	Cards             int64      `json:"cards"`
	Transactions      int64      `json:"transactions"`
	LastTransactionAt *time.Time `json:"last_transaction_at,omitempty"`
}

// CustodyReport is the result of replaying one card's ledger.
type CustodyReport struct {
	CardID          int64    `json:"card_id"`
	CardName        string   `json:"card_name"`
	RecordedOwnerID int64    `json:"recorded_owner_id"`
	ReplayedOwnerID int64    `json:"replayed_owner_id"`
	Transactions    int      `json:"transactions"`
	Consistent      bool     `json:"consistent"`
	Problems        []string `json:"problems,omitempty"`
}
