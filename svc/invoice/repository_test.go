package invoice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/invoicekit/svc/invoice"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := invoice.NewMemoryRepository()
	userID := uuid.New()

	newInvoice := func(number string, createdAt time.Time) *invoice.Invoice {
		return &invoice.Invoice{ID: uuid.New(), UserID: userID, Number: number, Status: invoice.StatusDraft, CreatedAt: createdAt, UpdatedAt: createdAt}
	}

	first := newInvoice("A", epoch)
	second := newInvoice("B", epoch.Add(time.Hour))
	require.NoError(t, repo.Insert(ctx, first))
	require.NoError(t, repo.Insert(ctx, second))

	t.Run("number is unique per user", func(t *testing.T) {
		assert.ErrorIs(t, repo.Insert(ctx, newInvoice("A", epoch)), invoice.ErrInvoiceExists)

		other := newInvoice("A", epoch)
		other.UserID = uuid.New()
		assert.NoError(t, repo.Insert(ctx, other))
	})

	t.Run("list is newest first", func(t *testing.T) {
		list, err := repo.ListByUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "B", list[0].Number)
		assert.Equal(t, "A", list[1].Number)
	})

	t.Run("returned invoices are copies", func(t *testing.T) {
		got, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		got.Status = invoice.StatusSynced

		again, err := repo.Get(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusDraft, again.Status)
	})

	t.Run("missing invoice", func(t *testing.T) {
		id := uuid.New()
		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, id), invoice.ErrInvoiceNotFound)
		assert.ErrorIs(t, repo.UpdateStatus(ctx, id, invoice.StatusPending, epoch), invoice.ErrInvoiceNotFound)
	})
}
