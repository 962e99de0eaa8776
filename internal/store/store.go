// Package store persists the bookstore dataset in a local SQLite file.
//
// The whole dataset is replaced atomically per reset: schema recreation and
// every insert run inside one transaction, so readers never observe a
// partially migrated store. Declared foreign keys document the entity graph
// but are not enforced; dangling author and order references are tolerated
// and reads use LEFT JOIN where they can occur.
package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Store wraps the SQLite database file.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if necessary) the SQLite file at path and ensures the
// schema exists, so reads before the first reset see empty tables.
//
// The connection pool is limited to a single connection: the application is
// single-writer and SQLite serializes writers anyway.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_loc=UTC", path)

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Begin opens the transaction that spans one full reset.
func (s *Store) Begin(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, nil
}
