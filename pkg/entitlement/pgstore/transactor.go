package pgstore

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/pg"
)

// Transactor runs units of work in a single PostgreSQL transaction.
// Store calls made with the context passed to fn join that transaction.
type Transactor struct {
	pool *pgxpool.Pool
}

func NewTransactor(pool *pgxpool.Pool) *Transactor {
	if pool == nil {
		panic("pgstore: pool is required")
	}
	return &Transactor{pool: pool}
}

// WithinTx commits when fn returns nil and rolls back otherwise.
// Nested calls reuse the outer transaction. The context passed to fn carries
// an entitlement unit of work whose after-commit hooks run only once the
// transaction has committed.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, finish := entitlement.BeginUnitOfWork(ctx)
	err := pg.InTx(ctx, t.pool, fn)
	finish(err == nil)
	return err
}
