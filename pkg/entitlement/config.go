package entitlement

import (
	"fmt"
	"time"
)

// Store backends accepted by Config.Store.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds environment-driven settings for wiring the entitlement service.
type Config struct {
	Store          string        `env:"ENTITLEMENT_STORE" envDefault:"memory"`                  // Store selects the backend: memory, postgres or redis.
	MaxRetries     int           `env:"ENTITLEMENT_MAX_RETRIES" envDefault:"3"`                 // MaxRetries bounds local retries of optimistic concurrency conflicts.
	CacheSize      int           `env:"ENTITLEMENT_CACHE_SIZE" envDefault:"0"`                  // CacheSize enables the read-through record cache when positive.
	CacheTTL       time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"30s"`                 // CacheTTL is how long a cached record may be served.
	RedisKeyPrefix string        `env:"ENTITLEMENT_REDIS_PREFIX" envDefault:"entitlement:sub:"` // RedisKeyPrefix namespaces records in Redis.
}

// Options converts the configuration into service options.
func (c Config) Options() []ServiceOption {
	return []ServiceOption{WithMaxRetries(c.MaxRetries)}
}

// Validate checks the store selection.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("unknown ENTITLEMENT_STORE %q: want %s, %s or %s", c.Store, StoreMemory, StorePostgres, StoreRedis)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("ENTITLEMENT_MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	return nil
}
