// Package sqlstore implements the store interfaces on database/sql. The same
// code serves PostgreSQL (through pgx) and SQLite (through modernc.org/sqlite);
// queries are written with '?' placeholders and rebound by store.Dialect.
//
// Schema migrations for both databases are embedded and applied with goose.
package sqlstore
