package invoice

import "context"

// Transactor runs fn as one unit of work. pgstore.Transactor satisfies it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type inlineTransactor struct{}

func (inlineTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
