// Package database provides the shared PostgreSQL connection pool and a
// transaction helper. The pool is created once at startup, injected into
// repositories, and closed at shutdown; it is never ambient global state.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/datavault/pkg/logger"
)

const (
	// Pool bounds: operations block for a free connection rather than
	// opening unbounded connections to the backend.
	maxOpenConns    = 10
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute

	startupPingTimeout = 5 * time.Second
)

// Database wraps a bounded *sql.DB over the pgx stdlib driver.
type Database struct {
	db  *sql.DB
	log logger.Logger
}

// NewPool opens a bounded connection pool against dbURL and verifies
// connectivity with a short ping.
func NewPool(ctx context.Context, dbURL string, log logger.Logger) (*Database, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("database: open: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, startupPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}

	return &Database{db: db, log: log}, nil
}

// DB returns the underlying *sql.DB for direct queries and for libraries
// that need it (watermill-sql, goose).
func (d *Database) DB() *sql.DB {
	return d.db
}

// Ping checks database connectivity.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database: ping: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (d *Database) Close() {
	if err := d.db.Close(); err != nil && d.log != nil {
		d.log.Error("database: close", "error", err)
	}
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise, so a failed operation leaves no
// partial effect.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database: begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && d.log != nil {
			d.log.ErrorContext(ctx, "database: rollback", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database: commit tx: %w", err)
	}
	return nil
}
