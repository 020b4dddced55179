package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/invoicekit/pkg/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	wrap := func(code string) error {
		return fmt.Errorf("exec: %w", &pgconn.PgError{Code: code})
	}

	assert.True(t, pg.IsDuplicateKeyError(wrap("23505")))
	assert.False(t, pg.IsDuplicateKeyError(wrap("23514")))
	assert.True(t, pg.IsCheckViolationError(wrap("23514")))
	assert.True(t, pg.IsSerializationError(wrap("40001")))
	assert.False(t, pg.IsSerializationError(errors.New("plain")))
	assert.False(t, pg.IsDuplicateKeyError(nil))

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(nil))
}

func TestQuerierFrom(t *testing.T) {
	t.Parallel()

	_, ok := pg.TxFrom(context.Background())
	assert.False(t, ok)
	assert.Nil(t, pg.QuerierFrom(context.Background(), nil))
}

func TestConnect_EmptyConnectionString(t *testing.T) {
	t.Parallel()

	_, err := pg.Connect(context.Background(), pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)
}
