package entitlement

import (
	"context"
	"sync"
)

type uowKey struct{}

type unitOfWork struct {
	mu          sync.Mutex
	afterCommit []func()
}

// BeginUnitOfWork marks ctx as running inside a transaction whose writes
// are not visible until it commits. Stores that keep state outside the
// transaction (see NewCachedStore) defer that state to finish(true).
// finish(false) discards the deferred work. When ctx already carries a unit
// of work, the returned finish is a no-op and the outer owner finishes it.
func BeginUnitOfWork(ctx context.Context) (context.Context, func(committed bool)) {
	if _, ok := ctx.Value(uowKey{}).(*unitOfWork); ok {
		return ctx, func(bool) {}
	}
	u := &unitOfWork{}
	return context.WithValue(ctx, uowKey{}, u), func(committed bool) {
		u.mu.Lock()
		hooks := u.afterCommit
		u.afterCommit = nil
		u.mu.Unlock()
		if !committed {
			return
		}
		for _, fn := range hooks {
			fn()
		}
	}
}

// InUnitOfWork reports whether ctx carries a unit of work.
func InUnitOfWork(ctx context.Context) bool {
	_, ok := ctx.Value(uowKey{}).(*unitOfWork)
	return ok
}

// AfterCommit schedules fn to run once the unit of work in ctx commits.
// Without a unit of work fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	u, ok := ctx.Value(uowKey{}).(*unitOfWork)
	if !ok {
		fn()
		return
	}
	u.mu.Lock()
	u.afterCommit = append(u.afterCommit, fn)
	u.mu.Unlock()
}
