package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"tcg-inventory-api/internal/model"
)

// SQLStore implements Store on database/sql for SQLite, PostgreSQL and MySQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// StoreOption customizes a SQLStore.
type StoreOption func(*SQLStore)

// WithClock overrides the clock used to date ledger rows.
func WithClock(now func() time.Time) StoreOption {
	return func(s *SQLStore) { s.now = now }
}

// NewSQLStore wraps an already migrated database.
func NewSQLStore(db *sql.DB, d Dialect, opts ...StoreOption) *SQLStore {
	s := &SQLStore{db: db, dialect: d, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSQLStore opens the database, applies migrations and returns the store.
func OpenSQLStore(ctx context.Context, storeType, dsn string, opts ...StoreOption) (*SQLStore, error) {
	d, err := DialectFor(storeType)
	if err != nil {
		return nil, err
	}

	db, err := Open(ctx, d, dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db, d); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[SQLStore] Initialized %s store", d.Name)
	return NewSQLStore(db, d, opts...), nil
}

// Users returns a user repository bound to the pool.
func (s *SQLStore) Users() UserRepository {
	return &sqlUserRepository{db: s.db, d: s.dialect}
}

// Cards returns a card repository bound to the pool.
func (s *SQLStore) Cards() CardRepository {
	return newSQLCardRepository(s.db, s.dialect)
}

// Transactions returns a ledger repository bound to the pool.
func (s *SQLStore) Transactions() TransactionRepository {
	return &sqlTransactionRepository{db: s.db, d: s.dialect, now: s.now}
}

// WithinTx runs fn in a single database transaction.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(repos Repositories) error) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		return fn(&txRepositories{tx: tx, d: s.dialect, now: s.now})
	})
}

// Stats returns row counts and the latest ledger date.
func (s *SQLStore) Stats(ctx context.Context) (*model.StoreStats, error) {
	stats := &model.StoreStats{Driver: s.dialect.Name}

	counts := []struct {
		table string
		dst   *int64
	}{
		{"users", &stats.Users},
		{"cards", &stats.Cards},
		{"transactions", &stats.Transactions},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	last, err := lastTransactionDate(ctx, s.db)
	if err != nil {
		return nil, err
	}
	stats.LastTransactionAt = last

	return stats, nil
}

// Ping verifies the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// txRepositories binds repositories to one *sql.Tx.
type txRepositories struct {
	tx  *sql.Tx
	d   Dialect
	now func() time.Time
}

func (r *txRepositories) Users() UserRepository {
	return &sqlUserRepository{db: r.tx, d: r.d}
}

func (r *txRepositories) Cards() CardRepository {
	return newSQLCardRepository(r.tx, r.d)
}

func (r *txRepositories) Transactions() TransactionRepository {
	return &sqlTransactionRepository{db: r.tx, d: r.d, now: r.now}
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
