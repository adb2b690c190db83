// Package store provides the PostgreSQL-backed persistence layer:
// a subscription store with optimistic locking and a usage ledger whose
// bounded increment is a single conditional upsert, serialized by the
// database's row lock.
//
// Schema migrations are embedded via MigrationsFS and applied with pg.Migrate
// at startup.
package store
