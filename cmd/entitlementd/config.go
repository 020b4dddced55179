package main

import (
	"errors"

	"github.com/dmitrymomot/invoicekit/pkg/entitlement"
	"github.com/dmitrymomot/invoicekit/pkg/httpserver"
	"github.com/dmitrymomot/invoicekit/pkg/pg"
	"github.com/dmitrymomot/invoicekit/pkg/redis"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"` // Env selects log format and level: development, staging or production.
	LogLevel string `env:"LOG_LEVEL"`                        // LogLevel overrides the level implied by Env.

	HTTP        httpserver.Config
	Entitlement entitlement.Config
	Postgres    pg.Config
	Redis       redis.Config
}

func (c *appConfig) Validate() error {
	if err := c.Entitlement.Validate(); err != nil {
		return err
	}
	if c.Entitlement.Store == entitlement.StorePostgres && c.Postgres.ConnectionString == "" {
		return errors.New("PG_CONN_URL is required for the postgres store")
	}
	return nil
}
