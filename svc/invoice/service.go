package invoice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/logger"
)

// Entitlements is the part of entitlement.Service the invoice lifecycle uses.
type Entitlements interface {
	RequestCreationSlot(ctx context.Context, userID uuid.UUID) (entitlement.SlotDecision, error)
	CommitCreationAt(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error
	ReleaseCreationSlot(ctx context.Context, userID uuid.UUID, resourceCreatedAt time.Time) error
}

// Service manages invoices and keeps the creation quota in step with them.
type Service interface {
	// Create inserts a draft invoice. Returns ErrQuotaExceeded when the
	// user's tier allows no more creations in the current cycle.
	Create(ctx context.Context, userID uuid.UUID, number string) (*Invoice, error)

	// Delete removes an invoice and refunds its quota unit when it was
	// created in the current cycle.
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error

	// ChangeStatus moves an invoice to another status. Status changes never
	// touch the quota.
	ChangeStatus(ctx context.Context, userID, invoiceID uuid.UUID, status Status) (*Invoice, error)

	Get(ctx context.Context, userID, invoiceID uuid.UUID) (*Invoice, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Invoice, error)
}

type service struct {
	repo  Repository
	ent   Entitlements
	tx    Transactor
	clock entitlement.Clock
	log   *slog.Logger
}

// NewService builds the invoice service. Panics if repo or ent is nil.
func NewService(repo Repository, ent Entitlements, opts ...Option) Service {
	if repo == nil {
		panic("invoice: repository is required")
	}
	if ent == nil {
		panic("invoice: entitlements are required")
	}
	s := &service{
		repo:  repo,
		ent:   ent,
		tx:    inlineTransactor{},
		clock: entitlement.SystemClock(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("invoice"))
	return s
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, number string) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	if number == "" {
		return nil, ErrMissingNumber
	}

	slot, err := s.ent.RequestCreationSlot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !slot.Allowed {
		return nil, ErrQuotaExceeded
	}

	now := s.clock.Now().UTC()
	inv := &Invoice{
		ID:        uuid.New(),
		UserID:    userID,
		Number:    number,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	inserted := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, inv); err != nil {
			return err
		}
		inserted = true
		return s.ent.CommitCreationAt(ctx, userID, inv.CreatedAt)
	})
	if err != nil {
		if inserted {
			s.undoInsert(ctx, inv)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "invoice created",
		logger.UserID(userID),
		logger.InvoiceID(inv.ID),
	)
	return inv, nil
}

func (s *service) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	inv, err := s.owned(ctx, userID, invoiceID)
	if err != nil {
		return err
	}

	deleted := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, inv.ID); err != nil {
			return err
		}
		deleted = true
		return s.ent.ReleaseCreationSlot(ctx, userID, inv.CreatedAt)
	})
	if err != nil {
		if deleted {
			s.undoDelete(ctx, inv)
		}
		return err
	}

	s.log.InfoContext(ctx, "invoice deleted",
		logger.UserID(userID),
		logger.InvoiceID(inv.ID),
	)
	return nil
}

func (s *service) ChangeStatus(ctx context.Context, userID, invoiceID uuid.UUID, status Status) (*Invoice, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	inv, err := s.owned(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status == status {
		return inv, nil
	}
	if !inv.Status.CanTransition(status) {
		return nil, errors.Join(ErrInvalidTransition, errors.New(string(inv.Status)+" -> "+string(status)))
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateStatus(ctx, inv.ID, status, now); err != nil {
		return nil, err
	}
	inv.Status = status
	inv.UpdatedAt = now
	return inv, nil
}

func (s *service) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*Invoice, error) {
	return s.owned(ctx, userID, invoiceID)
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	return s.repo.ListByUser(ctx, userID)
}

// owned loads an invoice and hides invoices of other users.
func (s *service) owned(ctx context.Context, userID, invoiceID uuid.UUID) (*Invoice, error) {
	if userID == uuid.Nil {
		return nil, ErrMissingUserID
	}
	inv, err := s.repo.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.UserID != userID {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

// undoInsert removes an invoice whose quota commit failed. A transactional
// repository has already rolled the row back, which shows up as not found.
func (s *service) undoInsert(ctx context.Context, inv *Invoice) {
	err := s.repo.Delete(context.WithoutCancel(ctx), inv.ID)
	if err == nil || errors.Is(err, ErrInvoiceNotFound) {
		return
	}
	s.log.ErrorContext(ctx, "failed to remove invoice after quota commit failure",
		logger.UserID(inv.UserID),
		logger.InvoiceID(inv.ID),
		logger.Error(err),
	)
}

// undoDelete restores an invoice whose quota release failed.
func (s *service) undoDelete(ctx context.Context, inv *Invoice) {
	err := s.repo.Insert(context.WithoutCancel(ctx), inv)
	if err == nil || errors.Is(err, ErrInvoiceExists) {
		return
	}
	s.log.ErrorContext(ctx, "failed to restore invoice after quota release failure",
		logger.UserID(inv.UserID),
		logger.InvoiceID(inv.ID),
		logger.Error(err),
	)
}
