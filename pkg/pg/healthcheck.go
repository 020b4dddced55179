package pg

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Healthcheck returns a readiness check for pool, suitable for
// httpserver.ReadinessHandler.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		err := pool.Ping(ctx)
		if err == nil {
			return nil
		}
		return errors.Join(ErrHealthcheckFailed, err)
	}
}
