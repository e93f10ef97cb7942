package kv

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS records (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMPTZ DEFAULT now()
);`

// PostgresStore implements Store on a PostgreSQL database. It exists for
// deployments that already run Postgres; semantics are identical to the
// SQLite backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to Postgres using a lib/pq connection string
// and ensures the records table exists.
func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("kv: failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("kv: failed to ping postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kv: failed to create schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Load returns the JSON document stored under key.
func (s *PostgresStore) Load(key string) ([]byte, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM records WHERE key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: failed to load %q: %w", key, err)
	}
	return []byte(value), nil
}

// Save upserts the JSON document under key.
func (s *PostgresStore) Save(key string, value []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO records (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = now()
	`, key, string(value))
	if err != nil {
		return fmt.Errorf("kv: failed to save %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PostgresStore)(nil)
