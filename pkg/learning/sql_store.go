package learning

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// SQLStore keeps model snapshots in a SQL table. Supported drivers are
// "sqlite3" and "mysql".
type SQLStore struct {
	db     *sql.DB
	driver string
}

// NewSQLStore opens the database and creates the models table
func NewSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	if driver != "sqlite3" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported SQL driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	// LONGBLOB has BLOB affinity in SQLite
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS models (
			name VARCHAR(191) PRIMARY KEY,
			model_id VARCHAR(64) NOT NULL,
			payload LONGBLOB NOT NULL,
			updated_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLStore{db: db, driver: driver}, nil
}

// Save inserts or replaces the snapshot for name
func (s *SQLStore) Save(ctx context.Context, name string, m *Model) error {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO models (name, model_id, payload, updated_at)
		VALUES (?, ?, ?, ?)
	`, name, m.ID, buf.Bytes(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store model: %w", err)
	}
	return nil
}

// Load reads the snapshot for name
func (s *SQLStore) Load(ctx context.Context, name string) (*Model, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM models WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	return Decode(bytes.NewReader(payload))
}

// Close closes the database
func (s *SQLStore) Close() error {
	return s.db.Close()
}
