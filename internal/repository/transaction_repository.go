package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"tcg-inventory-api/internal/model"
)

// dateResolution is the finest precision every supported store keeps.
const dateResolution = time.Microsecond

type sqlTransactionRepository struct {
	db  DBTX
	d   Dialect
	now func() time.Time
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(dateResolution)
}

// Append dates the row strictly after the previous ledger row, so ledger order
// by date always equals insertion order even when the wall clock stalls or steps back.
func (r *sqlTransactionRepository) Append(ctx context.Context, t *model.Transaction) (int64, error) {
	if _, err := model.ParseTransactionType(string(t.Type)); err != nil {
		return 0, err
	}

	last, err := lastTransactionDate(ctx, r.db)
	if err != nil {
		return 0, err
	}

	date := r.now().UTC().Truncate(dateResolution)
	if last != nil && !date.After(*last) {
		date = last.Add(dateResolution)
	}
	t.Date = date

	query := `INSERT INTO transactions (card_id, transaction_type, date, price, from_user_id, to_user_id, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := r.d.insert(ctx, r.db, query,
		t.CardID, string(t.Type), t.Date, t.Price, t.FromUserID, t.ToUserID, t.Notes)
	if err != nil {
		return 0, fmt.Errorf("failed to append transaction: %w", err)
	}
	t.ID = id
	return id, nil
}

// Query filters by card name (every card sharing the name) and/or username
// on either side of the transaction.
func (r *sqlTransactionRepository) Query(ctx context.Context, filter model.TransactionFilter) ([]model.TransactionView, error) {
	query := `
		SELECT t.id, t.card_id, t.transaction_type, t.date, t.price, t.from_user_id, t.to_user_id, t.notes,
			c.name, u1.username, u2.username
		FROM transactions t
		JOIN cards c ON t.card_id = c.id
		LEFT JOIN users u1 ON t.from_user_id = u1.id
		LEFT JOIN users u2 ON t.to_user_id = u2.id`

	var where []string
	var args []any
	if filter.CardName != "" {
		where = append(where, "c.name = ?")
		args = append(args, filter.CardName)
	}
	if filter.Username != "" {
		where = append(where, "(u1.username = ? OR u2.username = ?)")
		args = append(args, filter.Username, filter.Username)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY t.date DESC, t.id DESC"

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	views := []model.TransactionView{}
	for rows.Next() {
		var v model.TransactionView
		var from, to sql.NullString
		if err := scanTransaction(rows, &v.Transaction, &v.CardName, &from, &to); err != nil {
			return nil, err
		}
		if from.Valid {
			v.FromUsername = &from.String
		}
		if to.Valid {
			v.ToUsername = &to.String
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}

// ListByCard returns the card's ledger in the order it was written.
func (r *sqlTransactionRepository) ListByCard(ctx context.Context, cardID int64) ([]model.Transaction, error) {
	query := `SELECT id, card_id, transaction_type, date, price, from_user_id, to_user_id, notes
		FROM transactions WHERE card_id = ? ORDER BY date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card transactions: %w", err)
	}
	defer rows.Close()

	txs := []model.Transaction{}
	for rows.Next() {
		var t model.Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func scanTransaction(row rowScanner, t *model.Transaction, extra ...any) error {
	var kind string
	var from, to sql.NullInt64
	var notes sql.NullString

	dest := append([]any{&t.ID, &t.CardID, &kind, &t.Date, &t.Price, &from, &to, &notes}, extra...)
	if err := row.Scan(dest...); err != nil {
		return fmt.Errorf("failed to scan transaction: %w", err)
	}

	var err error
	if t.Type, err = model.ParseTransactionType(kind); err != nil {
		return err
	}
	t.Date = t.Date.UTC()
	if from.Valid {
		t.FromUserID = &from.Int64
	}
	if to.Valid {
		t.ToUserID = &to.Int64
	}
	if notes.Valid {
		t.Notes = &notes.String
	}
	return nil
}

func lastTransactionDate(ctx context.Context, db DBTX) (*time.Time, error) {
	var last time.Time
	err := db.QueryRowContext(ctx, `SELECT date FROM transactions ORDER BY id DESC LIMIT 1`).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last transaction date: %w", err)
	}
	last = last.UTC()
	return &last, nil
}

var _ TransactionRepository = (*sqlTransactionRepository)(nil)
