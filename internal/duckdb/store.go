// Package duckdb persists comparison runs in DuckDB and caches parsed
// annotation files as gob files.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding comparison runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file, empty for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			source VARCHAR,
			created_at TIMESTAMP,
			comparisons BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS comparisons (
			run_id VARCHAR,
			seq BIGINT,
			hit_urs VARCHAR,
			hit_chrom VARCHAR,
			hit_start BIGINT,
			hit_stop BIGINT,
			hit_type VARCHAR,
			hit_identity DOUBLE,
			feature_urs VARCHAR,
			feature_chrom VARCHAR,
			feature_start BIGINT,
			feature_stop BIGINT,
			feature_type VARCHAR,
			shift_start BIGINT,
			shift_stop BIGINT,
			match_type VARCHAR,
			location_type VARCHAR,
			pretty VARCHAR,
			PRIMARY KEY (run_id, seq)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
