package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) DriverName() string {
	return "postgres"
}

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) RewriteQuery(query string) string {
	// PostgreSQL uses numbered placeholders ($1, $2, ...)
	return rewritePlaceholdersToNumbered(query)
}

func (d *PostgresDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *PostgresDialect) CreateRecordsTableQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS records (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);
	`
}

func (d *PostgresDialect) UpsertRecordQuery() string {
	return `
		INSERT INTO records (k, v, updated_at) VALUES (?, ?, NOW())
		ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = NOW()
	`
}

func (d *PostgresDialect) KeysByPrefixQuery() string {
	return `SELECT k FROM records WHERE k LIKE ? ESCAPE '\' ORDER BY k`
}
