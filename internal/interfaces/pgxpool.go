package interfaces

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// PgxPoolIface is the subset of pgxpool.Pool used by the application. It is
// satisfied by both *pgxpool.Pool and pgxmock's pool mock.
type PgxPoolIface interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
