package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/invoicekit/pkg/pg"
)

const (
	invoiceColumns = `id, user_id, number, status, created_at, updated_at`

	insertInvoice = `INSERT INTO invoices (` + invoiceColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	selectInvoice = `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	deleteInvoice = `DELETE FROM invoices WHERE id = $1`
	updateStatus  = `UPDATE invoices SET status = $2, updated_at = $3 WHERE id = $1`
	listByUser    = `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = $1 ORDER BY created_at DESC, number`
)

type pgRepository struct {
	db pg.Querier
}

// NewPostgresRepository returns a Repository on pool. Statements join the
// transaction carried in ctx, so invoice writes and entitlement counter
// writes made through the same Transactor commit together.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	if pool == nil {
		panic("invoice: pool is required")
	}
	return &pgRepository{db: pool}
}

func (r *pgRepository) Insert(ctx context.Context, inv *Invoice) error {
	_, err := pg.QuerierFrom(ctx, r.db).Exec(ctx, insertInvoice,
		inv.ID, inv.UserID, inv.Number, string(inv.Status), inv.CreatedAt, inv.UpdatedAt)
	if pg.IsDuplicateKeyError(err) {
		return ErrInvoiceExists
	}
	if err != nil {
		return fmt.Errorf("invoice: insert: %w", err)
	}
	return nil
}

func (r *pgRepository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := scanInvoice(pg.QuerierFrom(ctx, r.db).QueryRow(ctx, selectInvoice, id))
	if pg.IsNotFoundError(err) {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("invoice: select: %w", err)
	}
	return inv, nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := pg.QuerierFrom(ctx, r.db).Exec(ctx, deleteInvoice, id)
	if err != nil {
		return fmt.Errorf("invoice: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedAt time.Time) error {
	tag, err := pg.QuerierFrom(ctx, r.db).Exec(ctx, updateStatus, id, string(status), updatedAt)
	if pg.IsCheckViolationError(err) {
		return ErrInvalidStatus
	}
	if err != nil {
		return fmt.Errorf("invoice: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvoiceNotFound
	}
	return nil
}

func (r *pgRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	rows, err := pg.QuerierFrom(ctx, r.db).Query(ctx, listByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("invoice: list: %w", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("invoice: scan: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("invoice: list: %w", err)
	}
	return out, nil
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv    Invoice
		status string
	)
	if err := row.Scan(&inv.ID, &inv.UserID, &inv.Number, &status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return nil, err
	}
	inv.Status = Status(status)
	inv.CreatedAt = inv.CreatedAt.UTC()
	inv.UpdatedAt = inv.UpdatedAt.UTC()
	return &inv, nil
}
