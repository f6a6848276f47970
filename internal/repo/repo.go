package repo

import (
	"context"
	"database/sql"
	"errors"
)

// ErrNotFound is returned when a queried row does not exist.
var ErrNotFound = errors.New("not found")

// Querier is satisfied by both *sql.DB and *sql.Tx, so statements like the
// sequence allocation can run inside or outside a transaction.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
