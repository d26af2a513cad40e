package kvstore

import (
	"database/sql"
	"fmt"
	"strings"

	"guardianai/internal/database"
)

// SQLStore implements Store on top of the records table, reachable
// through any of the supported database dialects.
type SQLStore struct {
	db *database.DB
}

// NewSQLStore creates a store backed by the given database
func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get retrieves a value by key
func (s *SQLStore) Get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT v FROM records WHERE k = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	return []byte(value), true, nil
}

// Set stores a value under key, overwriting any prior value
func (s *SQLStore) Set(key string, value []byte) error {
	if _, err := s.db.Exec(s.db.Dialect.UpsertRecordQuery(), key, string(value)); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *SQLStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM records WHERE k = ?", key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// Keys returns all keys with the given prefix in sorted order
func (s *SQLStore) Keys(prefix string) ([]string, error) {
	pattern := escapeLike(prefix) + "%"
	rows, err := s.db.Query(s.db.Dialect.KeysByPrefixQuery(), pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: keys %s: %v", ErrUnavailable, prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scan key: %v", ErrUnavailable, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate keys: %v", ErrUnavailable, err)
	}
	return keys, nil
}

// escapeLike escapes LIKE wildcards so prefixes match literally
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
