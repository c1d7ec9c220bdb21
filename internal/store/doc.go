// Package store defines the persistence contracts for tasks and users,
// the SQL dialect abstraction, the task query builder and the transaction
// helper used by the service layer. Implementations live in
// internal/platform/sqlstore.
package store
