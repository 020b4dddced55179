package pgstore

import "embed"

// Migrations holds the goose migrations for the subscription table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations passed to pg.MigrateFS.
const MigrationsDir = "migrations"
