package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Transactor hands out the transactions that wallet mutations run in. The
// ledger service takes the wallet row lock inside the transaction, so plain
// read-committed transactions are sufficient.
type Transactor struct {
	pool Pool
}

// NewTransactor creates a Transactor backed by the shared connection pool.
func NewTransactor(pool Pool) *Transactor {
	return &Transactor{pool: pool}
}

// Begin opens the transaction a balance mutation will commit or roll back as
// a unit.
func (t *Transactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return t.pool.Begin(ctx)
}
