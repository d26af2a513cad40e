package database

import (
	"strings"
	"testing"
)

func TestDriverNames(t *testing.T) {
	tests := []struct {
		dialect Dialect
		driver  string
	}{
		{NewSQLiteDialect(), "sqlite3"},
		{NewPostgresDialect(), "postgres"},
		{NewMySQLDialect(), "mysql"},
	}

	for _, tt := range tests {
		if got := tt.dialect.DriverName(); got != tt.driver {
			t.Errorf("Expected driver %s, got %s", tt.driver, got)
		}
	}
}

func TestPostgresRewriteQuery(t *testing.T) {
	d := NewPostgresDialect()

	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			"single placeholder",
			"SELECT v FROM records WHERE k = ?",
			"SELECT v FROM records WHERE k = $1",
		},
		{
			"multiple placeholders",
			"INSERT INTO records (k, v) VALUES (?, ?)",
			"INSERT INTO records (k, v) VALUES ($1, $2)",
		},
		{
			"no placeholders",
			"SELECT COUNT(*) FROM records",
			"SELECT COUNT(*) FROM records",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.RewriteQuery(tt.query); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSQLiteAndMySQLKeepPlaceholders(t *testing.T) {
	query := "SELECT v FROM records WHERE k = ?"

	if got := NewSQLiteDialect().RewriteQuery(query); got != query {
		t.Errorf("SQLite must not rewrite placeholders, got %q", got)
	}
	if got := NewMySQLDialect().RewriteQuery(query); got != query {
		t.Errorf("MySQL must not rewrite placeholders, got %q", got)
	}
}

func TestMySQLDSNParseTime(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"bare dsn", "user:pass@tcp(localhost)/guardian", "user:pass@tcp(localhost)/guardian?parseTime=true"},
		{"existing params", "user:pass@tcp(localhost)/guardian?charset=utf8", "user:pass@tcp(localhost)/guardian?charset=utf8&parseTime=true"},
		{"already set", "user:pass@tcp(localhost)/guardian?parseTime=true", "user:pass@tcp(localhost)/guardian?parseTime=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.DSN(DialectConfig{URL: tt.url}); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUpsertQueries(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		fragment string
	}{
		{"sqlite", NewSQLiteDialect(), "ON CONFLICT(k) DO UPDATE"},
		{"postgres", NewPostgresDialect(), "ON CONFLICT (k) DO UPDATE"},
		{"mysql", NewMySQLDialect(), "ON DUPLICATE KEY UPDATE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.dialect.UpsertRecordQuery()
			if !strings.Contains(query, tt.fragment) {
				t.Errorf("Expected upsert to contain %q, got %q", tt.fragment, query)
			}
			if strings.Count(query, "?") != 2 {
				t.Errorf("Expected exactly 2 placeholders, got %q", query)
			}
		})
	}
}

func TestKeysByPrefixQueryEscapeLiteral(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		escape  string
	}{
		{"sqlite", NewSQLiteDialect(), `ESCAPE '\' `},
		{"postgres", NewPostgresDialect(), `ESCAPE '\' `},
		// MySQL's lexer consumes one backslash inside string
		// literals, so the statement text must carry two
		{"mysql", NewMySQLDialect(), `ESCAPE '\\' `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.dialect.KeysByPrefixQuery()
			if !strings.Contains(query, tt.escape) {
				t.Errorf("Expected query to contain %q, got %q", tt.escape, query)
			}
			if strings.Count(query, "?") != 1 {
				t.Errorf("Expected exactly 1 placeholder, got %q", query)
			}
			if !strings.Contains(query, "ORDER BY k") {
				t.Errorf("Expected sorted key order, got %q", query)
			}
		})
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := Open("oracle", "", ""); err == nil {
		t.Error("Expected an error for an unsupported database type")
	}
}
