package invoice_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/svc/invoice"
)

var epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// tickingClock moves forward by step on every reading, like a real clock.
type tickingClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *tickingClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockEntitlements struct {
	mock.Mock
}

func (m *mockEntitlements) RequestCreationSlot(ctx context.Context, userID uuid.UUID) (entitlement.SlotDecision, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entitlement.SlotDecision), args.Error(1)
}

func (m *mockEntitlements) CommitCreationAt(ctx context.Context, userID uuid.UUID, createdAt time.Time) error {
	return m.Called(ctx, userID, createdAt).Error(0)
}

func (m *mockEntitlements) ReleaseCreationSlot(ctx context.Context, userID uuid.UUID, createdAt time.Time) error {
	return m.Called(ctx, userID, createdAt).Error(0)
}

type countingTransactor struct {
	mu    sync.Mutex
	calls int
}

func (t *countingTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return fn(ctx)
}

// newStack wires the invoice service to a real entitlement service on a memory store.
func newStack(t *testing.T) (invoice.Service, entitlement.Service, *testClock) {
	t.Helper()
	clock := &testClock{now: epoch}
	ent, err := entitlement.NewService(entitlement.NewMemoryStore(), entitlement.WithClock(clock))
	require.NoError(t, err)
	return invoice.NewService(invoice.NewMemoryRepository(), ent, invoice.WithClock(clock)), ent, clock
}

func createN(t *testing.T, svc invoice.Service, userID uuid.UUID, n int, prefix string) []*invoice.Invoice {
	t.Helper()
	out := make([]*invoice.Invoice, 0, n)
	for i := range n {
		inv, err := svc.Create(context.Background(), userID, fmt.Sprintf("%s-%03d", prefix, i+1))
		require.NoError(t, err, "creation %d", i+1)
		out = append(out, inv)
	}
	return out
}

func TestNewService(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { invoice.NewService(nil, &mockEntitlements{}) })
	assert.Panics(t, func() { invoice.NewService(invoice.NewMemoryRepository(), nil) })
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	t.Run("free tier stops at thirty", func(t *testing.T) {
		t.Parallel()
		svc, ent, _ := newStack(t)
		userID := uuid.New()
		ctx := context.Background()

		createN(t, svc, userID, 30, "INV")

		_, err := svc.Create(ctx, userID, "INV-031")
		require.ErrorIs(t, err, invoice.ErrQuotaExceeded)

		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 30, usage.Count)

		list, err := svc.List(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, list, 30)
	})

	t.Run("new invoice is a draft", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newStack(t)
		userID := uuid.New()

		inv, err := svc.Create(context.Background(), userID, "INV-1")
		require.NoError(t, err)
		assert.Equal(t, invoice.StatusDraft, inv.Status)
		assert.Equal(t, userID, inv.UserID)
		assert.Equal(t, epoch, inv.CreatedAt)
		assert.NotEqual(t, uuid.Nil, inv.ID)
	})

	t.Run("premium is unlimited", func(t *testing.T) {
		t.Parallel()
		svc, ent, _ := newStack(t)
		userID := uuid.New()
		end := epoch.AddDate(0, 0, 30)
		_, err := ent.ChangeTier(context.Background(), userID, entitlement.TierPremium, &end)
		require.NoError(t, err)

		createN(t, svc, userID, 45, "INV")
	})

	t.Run("quota resets in next cycle", func(t *testing.T) {
		t.Parallel()
		svc, _, clock := newStack(t)
		userID := uuid.New()

		createN(t, svc, userID, 30, "JAN")
		clock.Advance(30 * 24 * time.Hour)
		createN(t, svc, userID, 30, "FEB")
	})

	tests := []struct {
		name    string
		userID  uuid.UUID
		number  string
		wantErr error
	}{
		{"missing user", uuid.Nil, "INV-1", invoice.ErrMissingUserID},
		{"missing number", uuid.New(), "", invoice.ErrMissingNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ent := &mockEntitlements{}
			svc := invoice.NewService(invoice.NewMemoryRepository(), ent)

			_, err := svc.Create(context.Background(), tt.userID, tt.number)
			assert.ErrorIs(t, err, tt.wantErr)
			ent.AssertNotCalled(t, "RequestCreationSlot", mock.Anything, mock.Anything)
		})
	}

	t.Run("duplicate number does not consume quota", func(t *testing.T) {
		t.Parallel()
		svc, ent, _ := newStack(t)
		userID := uuid.New()
		ctx := context.Background()

		createN(t, svc, userID, 1, "INV")
		_, err := svc.Create(ctx, userID, "INV-001")
		require.ErrorIs(t, err, invoice.ErrInvoiceExists)

		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, usage.Count)
	})
}

func TestService_Create_CommitFailure(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	ctx := context.Background()

	ent := &mockEntitlements{}
	ent.On("RequestCreationSlot", mock.Anything, userID).
		Return(entitlement.SlotDecision{Allowed: true, Remaining: 1, EffectiveTier: entitlement.TierFree}, nil).Once()
	ent.On("CommitCreationAt", mock.Anything, userID, mock.AnythingOfType("time.Time")).Return(entitlement.ErrQuotaExceeded).Once()

	tx := &countingTransactor{}
	repo := invoice.NewMemoryRepository()
	svc := invoice.NewService(repo, ent, invoice.WithTransactor(tx))

	_, err := svc.Create(ctx, userID, "INV-1")
	require.ErrorIs(t, err, invoice.ErrQuotaExceeded)
	assert.Equal(t, 1, tx.calls)

	list, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, list, "invoice must be removed when the commit fails")
	ent.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("refunds quota in current cycle", func(t *testing.T) {
		t.Parallel()
		svc, ent, _ := newStack(t)
		userID := uuid.New()
		ctx := context.Background()

		invoices := createN(t, svc, userID, 30, "INV")
		require.NoError(t, svc.Delete(ctx, userID, invoices[0].ID))

		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 29, usage.Count)

		_, err = svc.Create(ctx, userID, "INV-031")
		require.NoError(t, err)

		_, err = svc.Get(ctx, userID, invoices[0].ID)
		assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)
	})

	t.Run("previous cycle invoice does not refund", func(t *testing.T) {
		t.Parallel()
		svc, ent, clock := newStack(t)
		userID := uuid.New()
		ctx := context.Background()

		old := createN(t, svc, userID, 2, "OLD")
		clock.Advance(31 * 24 * time.Hour)
		createN(t, svc, userID, 1, "NEW")

		require.NoError(t, svc.Delete(ctx, userID, old[0].ID))

		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 1, usage.Count)
	})

	t.Run("other user's invoice is hidden", func(t *testing.T) {
		t.Parallel()
		svc, _, _ := newStack(t)
		owner := uuid.New()
		inv := createN(t, svc, owner, 1, "INV")[0]

		err := svc.Delete(context.Background(), uuid.New(), inv.ID)
		assert.ErrorIs(t, err, invoice.ErrInvoiceNotFound)

		_, err = svc.Get(context.Background(), owner, inv.ID)
		assert.NoError(t, err)
	})

	t.Run("release failure restores the invoice", func(t *testing.T) {
		t.Parallel()
		userID := uuid.New()
		ctx := context.Background()
		releaseErr := errors.New("store unavailable")

		repo := invoice.NewMemoryRepository()
		inv := &invoice.Invoice{ID: uuid.New(), UserID: userID, Number: "INV-1", Status: invoice.StatusPending, CreatedAt: epoch, UpdatedAt: epoch}
		require.NoError(t, repo.Insert(ctx, inv))

		ent := &mockEntitlements{}
		ent.On("ReleaseCreationSlot", mock.Anything, userID, epoch).Return(releaseErr).Once()
		svc := invoice.NewService(repo, ent)

		err := svc.Delete(ctx, userID, inv.ID)
		require.ErrorIs(t, err, releaseErr)

		got, err := repo.Get(ctx, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, *inv, *got)
		ent.AssertExpectations(t)
	})
}

func TestService_Delete_RefundsWithMovingClock(t *testing.T) {
	t.Parallel()

	newMovingStack := func(t *testing.T) (invoice.Service, entitlement.Service, *tickingClock) {
		t.Helper()
		clock := &tickingClock{now: epoch, step: time.Microsecond}
		ent, err := entitlement.NewService(entitlement.NewMemoryStore(), entitlement.WithClock(clock))
		require.NoError(t, err)
		return invoice.NewService(invoice.NewMemoryRepository(), ent, invoice.WithClock(clock)), ent, clock
	}

	t.Run("first invoice of a new user", func(t *testing.T) {
		t.Parallel()
		svc, ent, _ := newMovingStack(t)
		userID := uuid.New()
		ctx := context.Background()

		inv := createN(t, svc, userID, 1, "INV")[0]
		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		require.EqualValues(t, 1, usage.Count)
		assert.False(t, inv.CreatedAt.Before(usage.CycleStart), "invoice must fall inside the cycle it was counted in")

		require.NoError(t, svc.Delete(ctx, userID, inv.ID))
		usage, err = ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, usage.Count)
	})

	t.Run("first invoice after a rollover", func(t *testing.T) {
		t.Parallel()
		svc, ent, clock := newMovingStack(t)
		userID := uuid.New()
		ctx := context.Background()

		createN(t, svc, userID, 3, "OLD")
		clock.Advance(30 * 24 * time.Hour)
		inv := createN(t, svc, userID, 1, "NEW")[0]

		require.NoError(t, svc.Delete(ctx, userID, inv.ID))
		usage, err := ent.GetUsage(ctx, userID)
		require.NoError(t, err)
		assert.EqualValues(t, 0, usage.Count)
	})
}

func TestService_ChangeStatus_LeavesQuotaAlone(t *testing.T) {
	t.Parallel()
	userID := uuid.New()
	ctx := context.Background()
	clock := &testClock{now: epoch}

	repo := invoice.NewMemoryRepository()
	inv := &invoice.Invoice{ID: uuid.New(), UserID: userID, Number: "INV-1", Status: invoice.StatusDraft, CreatedAt: epoch, UpdatedAt: epoch}
	require.NoError(t, repo.Insert(ctx, inv))

	ent := &mockEntitlements{}
	svc := invoice.NewService(repo, ent, invoice.WithClock(clock))

	for _, next := range []invoice.Status{invoice.StatusPending, invoice.StatusDraft, invoice.StatusPending, invoice.StatusSynced} {
		clock.Advance(time.Hour)
		got, err := svc.ChangeStatus(ctx, userID, inv.ID, next)
		require.NoError(t, err)
		assert.Equal(t, next, got.Status)
		assert.Equal(t, clock.Now(), got.UpdatedAt)
	}

	_, err := svc.ChangeStatus(ctx, userID, inv.ID, invoice.StatusDraft)
	assert.ErrorIs(t, err, invoice.ErrInvalidTransition)

	_, err = svc.ChangeStatus(ctx, userID, inv.ID, invoice.Status("void"))
	assert.ErrorIs(t, err, invoice.ErrInvalidStatus)

	ent.AssertNotCalled(t, "RequestCreationSlot", mock.Anything, mock.Anything)
	ent.AssertNotCalled(t, "CommitCreationAt", mock.Anything, mock.Anything, mock.Anything)
	ent.AssertNotCalled(t, "ReleaseCreationSlot", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatus_CanTransition(t *testing.T) {
	t.Parallel()
	tests := []struct {
		from, to invoice.Status
		want     bool
	}{
		{invoice.StatusDraft, invoice.StatusPending, true},
		{invoice.StatusDraft, invoice.StatusSynced, false},
		{invoice.StatusPending, invoice.StatusDraft, true},
		{invoice.StatusPending, invoice.StatusSynced, true},
		{invoice.StatusSynced, invoice.StatusDraft, false},
		{invoice.StatusSynced, invoice.StatusPending, false},
		{invoice.StatusDraft, invoice.StatusDraft, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestService_ConcurrentCreate(t *testing.T) {
	t.Parallel()
	svc, ent, _ := newStack(t)
	userID := uuid.New()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := range 40 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(ctx, userID, fmt.Sprintf("INV-%03d", i))
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	usage, err := ent.GetUsage(ctx, userID)
	require.NoError(t, err)
	list, err := svc.List(ctx, userID)
	require.NoError(t, err)

	assert.LessOrEqual(t, created, 30)
	assert.EqualValues(t, created, usage.Count)
	assert.Len(t, list, created)
}
