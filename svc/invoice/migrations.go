package invoice

import "embed"

// Migrations holds the goose migrations for the invoices table. They are
// tracked in their own goose table (MigrationsTable) so they version
// independently of other packages' migrations.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const (
	MigrationsDir   = "migrations"
	MigrationsTable = "invoice_schema_migrations"
)
