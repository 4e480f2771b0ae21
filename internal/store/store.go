// Package store is the per-user document store behind the ledger: accounts,
// transactions and budgets live in SQLite, every mutation fans out a change
// event through the Hub, and balance updates go through an optimistic
// versioned unit-of-work (see tx.go).
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	hub *Hub
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Serialize writers at the driver level; SQLITE_BUSY still surfaces as
	// a write conflict under contention.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:  db,
		hub: NewHub(),
	}, nil
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Hub exposes the change-notification hub so readers can subscribe to a
// user's collections.
func (s *Store) Hub() *Hub {
	return s.hub
}

// mapSQLiteErr translates driver-level contention into the domain conflict
// error so the ledger engine can retry the whole read-modify-write sequence.
func mapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked") {
		return fmt.Errorf("%w: %v", core.ErrWriteConflict, err)
	}
	return err
}
