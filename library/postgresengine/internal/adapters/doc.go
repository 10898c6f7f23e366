// Package adapters provides database adapter implementations for the
// PostgreSQL library store.
//
// This package implements the adapter pattern to support multiple PostgreSQL
// database libraries: pgx.Pool, sql.DB, and sqlx.DB. All adapters provide
// equivalent functionality through a common DBAdapter interface, including
// transaction scopes, so the store's workflows run identically on any
// supported connection type.
//
// The adapters also classify driver-specific constraint-violation errors
// (SQLSTATE 23xxx) into a common shape so the store can surface them as one
// error type regardless of the driver in use.
package adapters
