// Package config loads typed configuration from the environment.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for parsing tagged structs. Every call to Load
// parses afresh; callers keep the result.
//
//	_ = config.LoadEnv()
//
//	var cfg entitlement.Config
//	config.MustLoad(&cfg)
//
// Structs implementing Validator are checked after parsing, and failures are
// reported as ErrInvalidConfig.
package config
