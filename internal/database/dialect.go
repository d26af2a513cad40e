package database

import (
	"database/sql"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(config DialectConfig) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// CreateRecordsTableQuery returns the SQL to create the key/value records table
	CreateRecordsTableQuery() string

	// UpsertRecordQuery returns the SQL to insert-or-replace a record,
	// taking key and value as its two placeholders
	UpsertRecordQuery() string

	// KeysByPrefixQuery returns the SQL selecting keys matching a LIKE
	// pattern in sorted order. The pattern escapes wildcards with a
	// backslash; the escape literal is dialect-specific because MySQL
	// backslash-escapes inside string literals while SQLite and
	// PostgreSQL do not.
	KeysByPrefixQuery() string
}

// DialectConfig holds configuration for database connection
type DialectConfig struct {
	// For SQLite
	Path string

	// For PostgreSQL/MySQL
	URL string
}

// placeholderRegexp matches ? placeholders not inside quotes
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}
