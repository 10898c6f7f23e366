// Package postgresengine implements the library store on PostgreSQL.
//
// Every mutating workflow (adding books and copies, issuing and returning
// loans, reader and fine maintenance) runs inside a single database
// transaction that is committed or rolled back before the operation returns,
// so no partially applied state is ever observable. Read-side projections are
// single aggregate queries.
//
// The engine works with pgxpool.Pool, sql.DB or sqlx.DB connections through
// the internal adapters package, and is configured with functional options
// (logging, metrics, tracing, schema names, the warehouse shelf used as the
// default copy placement).
package postgresengine
