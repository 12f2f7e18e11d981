package database

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

var (
	// ErrNotFound is returned when a looked-up row does not exist
	ErrNotFound = errors.New("not found")
	// ErrMissingSeedData means required reference rows (categories, payment types) are absent
	ErrMissingSeedData = errors.New("missing seed data")
)

type DB struct {
	*sql.DB
}

// Tx is one exclusive transaction scope. Every read and write made through it shares
// the same connection.
type Tx struct {
	*sql.Tx
}

// Open opens or creates the database at the given path
func Open(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Foreign keys on; write transactions take the RESERVED lock up front so
	// read-then-write sequences inside them are serialised across connections.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{db}, nil
}

// Init creates tables if they don't exist and inserts seed data
func (db *DB) Init() error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction. The transaction commits only if fn returns nil;
// any error or panic rolls it back.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&Tx{tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RequireSeedData verifies the reference rows the ingestion path depends on.
func (db *DB) RequireSeedData(ctx context.Context) error {
	var categoryCount int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories WHERE category = ?`, uncategorizedName).
		Scan(&categoryCount)
	if err != nil {
		return fmt.Errorf("query seed categories: %w", err)
	}
	if categoryCount == 0 {
		return fmt.Errorf("%w: category %q", ErrMissingSeedData, uncategorizedName)
	}

	var paymentTypes int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM payment_types`).Scan(&paymentTypes); err != nil {
		return fmt.Errorf("query seed payment types: %w", err)
	}
	if paymentTypes == 0 {
		return fmt.Errorf("%w: payment types", ErrMissingSeedData)
	}
	return nil
}
