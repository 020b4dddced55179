// Package pg holds the PostgreSQL plumbing shared by the stores: a retrying
// pgxpool connector, goose migrations from an embedded filesystem, a
// readiness probe, SQLSTATE helpers and context-carried transactions.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.MigrateFS(ctx, pool, pgstore.Migrations, pgstore.MigrationsDir, cfg, log); err != nil {
//		return err
//	}
//
// InTx stores the pgx.Tx in the context; repositories call QuerierFrom so
// that every statement issued under that context joins the transaction.
package pg
