package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tcg-inventory-api/internal/model"
)

type sqlUserRepository struct {
	db DBTX
	d  Dialect
}

// Create inserts a user. Uniqueness is enforced by the users.username constraint.
func (r *sqlUserRepository) Create(ctx context.Context, username string, email *string) (int64, error) {
	id, err := r.d.insert(ctx, r.db, `INSERT INTO users (username, email) VALUES (?, ?)`, username, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("username %q: %w", username, ErrDuplicate)
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return id, nil
}

// FindByUsername looks up a user by exact, case-sensitive username.
func (r *sqlUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.scanOne(ctx, `SELECT id, username, email FROM users WHERE username = ?`, username)
}

// GetByID looks up a user by id.
func (r *sqlUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	return r.scanOne(ctx, `SELECT id, username, email FROM users WHERE id = ?`, id)
}

func (r *sqlUserRepository) scanOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var u model.User
	var email sql.NullString

	err := r.db.QueryRowContext(ctx, r.d.Rebind(query), args...).Scan(&u.ID, &u.Username, &email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if email.Valid {
		u.Email = &email.String
	}
	return &u, nil
}

var _ UserRepository = (*sqlUserRepository)(nil)
