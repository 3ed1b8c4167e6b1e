package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect captures the SQL differences between supported stores.
// Queries are written with ? placeholders and rebound per dialect.
type Dialect struct {
	Name       string // sqlite, postgres, mysql
	DriverName string // database/sql driver
	Goose      string // goose dialect
	numbered   bool   // $1, $2 placeholders
	returning  bool   // INSERT ... RETURNING id instead of LastInsertId
	quote      byte
}

var (
	SQLite   = Dialect{Name: "sqlite", DriverName: "sqlite", Goose: "sqlite3", quote: '"'}
	Postgres = Dialect{Name: "postgres", DriverName: "postgres", Goose: "postgres", numbered: true, returning: true, quote: '"'}
	MySQL    = Dialect{Name: "mysql", DriverName: "mysql", Goose: "mysql", quote: '`'}
)

// DialectFor maps a STORE_TYPE value to a dialect.
func DialectFor(storeType string) (Dialect, error) {
	switch strings.ToLower(storeType) {
	case "", "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	}
	return Dialect{}, fmt.Errorf("unsupported store type %q", storeType)
}

// Rebind rewrites ? placeholders for the dialect.
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Quote quotes an identifier that collides with a reserved word (condition in MySQL).
func (d Dialect) Quote(ident string) string {
	return string(d.quote) + ident + string(d.quote)
}

// insert runs an INSERT and returns the generated id.
func (d Dialect) insert(ctx context.Context, db DBTX, query string, args ...any) (int64, error) {
	if d.returning {
		var id int64
		if err := db.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := db.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// isUniqueViolation reports whether err is a unique constraint failure for any supported driver.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}
