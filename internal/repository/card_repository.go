package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tcg-inventory-api/internal/model"
)

type sqlCardRepository struct {
	db      DBTX
	d       Dialect
	columns string
}

func newSQLCardRepository(db DBTX, d Dialect) *sqlCardRepository {
	return &sqlCardRepository{
		db:      db,
		d:       d,
		columns: "id, name, set_name, " + d.Quote("condition") + ", purchase_price, current_owner_id, created_date",
	}
}

// Create inserts a card. CreatedAt defaults to now when zero.
func (r *sqlCardRepository) Create(ctx context.Context, card *model.Card) (int64, error) {
	if card.CreatedAt.IsZero() {
		card.CreatedAt = nowUTC()
	}

	query := `INSERT INTO cards (name, set_name, ` + r.d.Quote("condition") + `, purchase_price, current_owner_id, created_date)
		VALUES (?, ?, ?, ?, ?, ?)`

	id, err := r.d.insert(ctx, r.db, query,
		card.Name, card.SetName, card.Condition, card.PurchasePrice, card.OwnerID, card.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create card: %w", err)
	}
	return id, nil
}

// FindByNameAndOwner breaks ties between identically named cards by lowest id.
func (r *sqlCardRepository) FindByNameAndOwner(ctx context.Context, name string, ownerID int64) (*model.Card, error) {
	query := `SELECT ` + r.columns + ` FROM cards
		WHERE name = ? AND current_owner_id = ?
		ORDER BY id ASC LIMIT 1`
	return r.scanOne(ctx, query, name, ownerID)
}

// GetByID looks up a card by id.
func (r *sqlCardRepository) GetByID(ctx context.Context, id int64) (*model.Card, error) {
	return r.scanOne(ctx, `SELECT `+r.columns+` FROM cards WHERE id = ?`, id)
}

// SetOwner does not check the previous owner.
func (r *sqlCardRepository) SetOwner(ctx context.Context, cardID, ownerID int64) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(`UPDATE cards SET current_owner_id = ? WHERE id = ?`), ownerID, cardID)
	if err != nil {
		return fmt.Errorf("failed to set card owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("card %d does not exist", cardID)
	}
	return nil
}

// ReassignOwner is a compare-and-set on current_owner_id.
func (r *sqlCardRepository) ReassignOwner(ctx context.Context, cardID, fromID, toID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		r.d.Rebind(`UPDATE cards SET current_owner_id = ? WHERE id = ? AND current_owner_id = ?`),
		toID, cardID, fromID)
	if err != nil {
		return false, fmt.Errorf("failed to reassign card owner: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByOwner returns cards in insertion order.
func (r *sqlCardRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Card, error) {
	return r.scanAll(ctx, `SELECT `+r.columns+` FROM cards WHERE current_owner_id = ? ORDER BY id ASC`, ownerID)
}

// ListAll returns every card in insertion order.
func (r *sqlCardRepository) ListAll(ctx context.Context) ([]model.Card, error) {
	return r.scanAll(ctx, `SELECT `+r.columns+` FROM cards ORDER BY id ASC`)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (model.Card, error) {
	var c model.Card
	var owner sql.NullInt64

	err := row.Scan(&c.ID, &c.Name, &c.SetName, &c.Condition, &c.PurchasePrice, &owner, &c.CreatedAt)
	if err != nil {
		return c, err
	}
	c.OwnerID = owner.Int64
	return c, nil
}

func (r *sqlCardRepository) scanOne(ctx context.Context, query string, args ...any) (*model.Card, error) {
	c, err := scanCard(r.db.QueryRowContext(ctx, r.d.Rebind(query), args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &c, nil
}

func (r *sqlCardRepository) scanAll(ctx context.Context, query string, args ...any) ([]model.Card, error) {
	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []model.Card{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

var _ CardRepository = (*sqlCardRepository)(nil)
