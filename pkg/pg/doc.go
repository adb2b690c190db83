// Package pg provides utilities for interacting with PostgreSQL using the
// pgx/v5 driver: connection pooling with retry, goose schema migrations from
// an embedded filesystem, a health check helper, and error classification
// helpers.
//
// Usage:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    panic(err)
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, cfg, slog.Default()); err != nil {
//	    panic(err)
//	}
//
// Error helpers such as [IsDuplicateKeyError] and [IsForeignKeyViolationError]
// unwrap *pgconn.PgError so business logic can classify failures without
// matching SQLSTATE codes by hand.
package pg
