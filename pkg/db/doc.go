// Package db connects to PostgreSQL with pgx and applies goose migrations.
//
// Connect retries with a linear backoff until the pool answers a ping.
// Migrate runs the embedded migrations through a database/sql bridge over the
// same pool. WithTx wraps a function in a transaction that rolls back on
// error or panic.
//
//	pool, err := db.Connect(ctx, cfg.DB)
//	if err != nil {
//		return err
//	}
//	if cfg.DB.AutoMigrate {
//		if err := db.Migrate(ctx, pool, store.Migrations(), cfg.DB.MigrationsTable, log); err != nil {
//			return err
//		}
//	}
package db
