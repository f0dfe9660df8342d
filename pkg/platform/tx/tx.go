package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From returns the SQL transaction carried by ctx, or nil when the caller is
// outside a transactional boundary. Stores branch on the nil return to pick
// between the transaction and their own connection pool.
func From(ctx context.Context) *sql.Tx {
	t, _ := ctx.Value(txKey).(*sql.Tx)
	return t
}
