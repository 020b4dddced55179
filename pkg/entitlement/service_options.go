package entitlement

import "log/slog"

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithClock sets the time source used for cycle and expiry evaluation.
func WithClock(clock Clock) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger. Nil keeps slog.Default().
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMaxRetries sets how many times a write that lost an optimistic
// concurrency race is retried with a fresh read before ErrConcurrentUpdate
// is returned to the caller.
func WithMaxRetries(n int) ServiceOption {
	return func(s *service) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithObserver registers an Observer for decision events.
func WithObserver(o Observer) ServiceOption {
	return func(s *service) {
		if o != nil {
			s.observer = o
		}
	}
}
