package store

import (
	"strconv"
	"strings"
)

// Dialect captures the SQL differences between the supported databases.
// Queries are written with '?' placeholders and rebound per dialect.
type Dialect interface {
	// Name is the goose dialect name.
	Name() string
	// Rebind rewrites '?' placeholders into the dialect's form.
	Rebind(query string) string
	// UnboundedLimit is the LIMIT operand meaning "no limit", needed when
	// only OFFSET is requested.
	UnboundedLimit() string
}

// Postgres is the PostgreSQL dialect ($1, $2, ... placeholders).
var Postgres Dialect = postgresDialect{}

// SQLite is the SQLite dialect ('?' placeholders).
var SQLite Dialect = sqliteDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string           { return "postgres" }
func (postgresDialect) UnboundedLimit() string { return "ALL" }

// Rebind numbers placeholders left to right. Question marks inside single
// quoted literals are left alone.
func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string               { return "sqlite3" }
func (sqliteDialect) UnboundedLimit() string     { return "-1" }
func (sqliteDialect) Rebind(query string) string { return query }
