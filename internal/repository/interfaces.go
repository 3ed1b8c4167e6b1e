package repository

import (
	"context"
	"errors"

	"tcg-inventory-api/internal/model"
)

// ErrDuplicate is returned when an insert violates a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// UserRepository defines identity data access methods.
type UserRepository interface {
	// Create inserts a user and returns its id. Returns ErrDuplicate if the username exists.
	Create(ctx context.Context, username string, email *string) (int64, error)

	// FindByUsername returns the user or nil if none exists.
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByID returns the user or nil if none exists.
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// CardRepository defines catalog data access methods.
type CardRepository interface {
	// Create inserts a card and returns its id.
	Create(ctx context.Context, card *model.Card) (int64, error)

	// FindByNameAndOwner returns the lowest-id card with this exact name held by ownerID, or nil.
	FindByNameAndOwner(ctx context.Context, name string, ownerID int64) (*model.Card, error)

	// GetByID returns the card or nil if none exists.
	GetByID(ctx context.Context, id int64) (*model.Card, error)

	// SetOwner unconditionally moves a card to a new owner.
	SetOwner(ctx context.Context, cardID, ownerID int64) error

	// ReassignOwner moves a card only while fromID still owns it. Returns false if no row matched.
	ReassignOwner(ctx context.Context, cardID, fromID, toID int64) (bool, error)

	// ListByOwner returns the owner's cards in insertion order.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.Card, error)

	// ListAll returns every card in insertion order.
	ListAll(ctx context.Context) ([]model.Card, error)
}

// TransactionRepository defines ledger data access methods. The ledger is append-only.
type TransactionRepository interface {
	// Append stores a transaction, assigning its date, and returns its id.
	Append(ctx context.Context, tx *model.Transaction) (int64, error)

	// Query returns joined ledger rows, newest first.
	Query(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionView, error)

	// ListByCard returns a card's transactions, oldest first.
	ListByCard(ctx context.Context, cardID int64) ([]model.Transaction, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories interface {
	Users() UserRepository
	Cards() CardRepository
	Transactions() TransactionRepository
}

// Store owns the database handle and runs units of work.
type Store interface {
	Repositories

	// WithinTx runs fn against transaction-bound repositories. The transaction commits
	// when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error

	// Stats returns row counts for the admin view.
	Stats(ctx context.Context) (*model.StoreStats, error)

	// Ping verifies the connection.
	Ping(ctx context.Context) error

	// Close closes the database handle.
	Close() error
}
