package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tcg-inventory-api/internal/model"
)

func newMockStore(t *testing.T, d Dialect) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLStore(db, d), mock
}

func TestDialectFor(t *testing.T) {
	for in, want := range map[string]string{
		"":           "sqlite",
		"sqlite":     "sqlite",
		"postgresql": "postgres",
		"MySQL":      "mysql",
	} {
		d, err := DialectFor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d.Name, in)
	}

	_, err := DialectFor("mongodb")
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	q := `UPDATE cards SET current_owner_id = ? WHERE id = ? AND current_owner_id = ?`
	assert.Equal(t, q, SQLite.Rebind(q))
	assert.Equal(t, q, MySQL.Rebind(q))
	assert.Equal(t, `UPDATE cards SET current_owner_id = $1 WHERE id = $2 AND current_owner_id = $3`, Postgres.Rebind(q))
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "`condition`", MySQL.Quote("condition"))
	assert.Equal(t, `"condition"`, Postgres.Quote("condition"))
}

func TestPostgres_CreateUserUsesReturning(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (username, email) VALUES ($1, $2) RETURNING id`)).
		WithArgs("alice", nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := s.Users().Create(context.Background(), "alice", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DuplicateUsername(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := s.Users().Create(context.Background(), "alice", nil)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMySQL_CreateUserUsesLastInsertID(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (username, email) VALUES (?, ?)`)).
		WithArgs("bob", "bob@example.com").
		WillReturnResult(sqlmock.NewResult(7, 1))

	email := "bob@example.com"
	id, err := s.Users().Create(context.Background(), "bob", &email)
	require.NoError(t, err)
	assert.EqualValues(t, 7, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_DuplicateUsername(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := s.Users().Create(context.Background(), "bob", nil)
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestMySQL_FindCardQuotesCondition(t *testing.T) {
	s, mock := newMockStore(t, MySQL)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, set_name, `condition`, purchase_price")).
		WithArgs("Mew", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	// an empty result set scans as no rows
	c, err := s.Cards().FindByNameAndOwner(context.Background(), "Mew", 3)
	require.NoError(t, err)
	assert.Nil(t, c)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollbackOnAppendFailure(t *testing.T) {
	s, mock := newMockStore(t, Postgres)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT date FROM transactions`).
		WillReturnError(errors.New("db down"))
	mock.ExpectRollback()

	err := s.WithinTx(ctx, func(repos Repositories) error {
		_, err := repos.Transactions().Append(ctx, &model.Transaction{CardID: 1, Type: model.TransactionIn})
		return err
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_CommitFailureIsReported(t *testing.T) {
	s, mock := newMockStore(t, SQLite)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk full"))

	err := s.WithinTx(context.Background(), func(Repositories) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReassignOwner_ZeroRows(t *testing.T) {
	s, mock := newMockStore(t, Postgres)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE cards SET current_owner_id = $1 WHERE id = $2 AND current_owner_id = $3`)).
		WithArgs(int64(2), int64(9), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := s.Cards().ReassignOwner(context.Background(), 9, 1, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}
