package invoice

import (
	"errors"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
)

var (
	ErrInvoiceNotFound   = errors.New("invoice: not found")
	ErrInvoiceExists     = errors.New("invoice: already exists")
	ErrInvalidStatus     = errors.New("invoice: invalid status")
	ErrInvalidTransition = errors.New("invoice: status transition not allowed")
	ErrMissingNumber     = errors.New("invoice: number is required")
	ErrMissingUserID     = errors.New("invoice: user ID is required")

	// ErrQuotaExceeded is returned by Create when the user has no creation slot left.
	ErrQuotaExceeded = entitlement.ErrQuotaExceeded
)
