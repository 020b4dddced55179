package invoice

import (
	"log/slog"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
)

// Option configures the invoice service.
type Option func(*service)

// WithTransactor sets the unit-of-work runner shared with the entitlement store.
// Without it, operations run inline and rely on compensation alone.
func WithTransactor(tx Transactor) Option {
	return func(s *service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the time source.
func WithClock(c entitlement.Clock) Option {
	return func(s *service) {
		if c != nil {
			s.clock = c
		}
	}
}
