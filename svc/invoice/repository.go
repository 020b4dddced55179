package invoice

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository persists invoices. Implementations must honor a transaction
// carried in ctx when they support one.
type Repository interface {
	Insert(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedAt time.Time) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error)
}

type memoryRepository struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]*Invoice
}

// NewMemoryRepository returns a Repository backed by a map.
// Invoice numbers are unique per user.
func NewMemoryRepository() Repository {
	return &memoryRepository{invoices: make(map[uuid.UUID]*Invoice)}
}

func (r *memoryRepository) Insert(ctx context.Context, inv *Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[inv.ID]; ok {
		return ErrInvoiceExists
	}
	for _, existing := range r.invoices {
		if existing.UserID == inv.UserID && existing.Number == inv.Number {
			return ErrInvoiceExists
		}
	}
	r.invoices[inv.ID] = inv.clone()
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inv, ok := r.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return inv.clone(), nil
}

func (r *memoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.invoices[id]; !ok {
		return ErrInvoiceNotFound
	}
	delete(r.invoices, id)
	return nil
}

func (r *memoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inv, ok := r.invoices[id]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv.Status = status
	inv.UpdatedAt = updatedAt
	return nil
}

func (r *memoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Invoice
	for _, inv := range r.invoices {
		if inv.UserID == userID {
			out = append(out, inv.clone())
		}
	}
	slices.SortFunc(out, func(a, b *Invoice) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(a.Number, b.Number))
	})
	return out, nil
}
