// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/tally-booth/models"
)

// Postgres error codes
const (
	pqUniqueViolation      = "23505"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// Dialect captures what differs between the supported databases:
// transaction isolation and how driver errors are classified.
type Dialect struct {
	Name string
}

// Open connects to the database described by dbType and url and
// verifies the connection.
//
// SQLite connections are limited to a single writer and start every
// transaction with BEGIN IMMEDIATE, so vote transactions never interleave.
// PostgreSQL vote transactions run at read committed and rely on row locks.
func Open(ctx context.Context, dbType, url string) (*sql.DB, Dialect, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch dbType {
	case models.DatabaseSQLite:
		conn, err = sql.Open("sqlite", sqliteDSN(url))
		if err != nil {
			return nil, Dialect{}, fmt.Errorf("failed to open sqlite: %w", err)
		}
		conn.SetMaxOpenConns(1)
	case models.DatabasePostgres:
		conn, err = sql.Open("postgres", url)
		if err != nil {
			return nil, Dialect{}, fmt.Errorf("failed to open postgres: %w", err)
		}
	default:
		return nil, Dialect{}, fmt.Errorf("unsupported database type %q", dbType)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, Dialect{}, fmt.Errorf("database ping failed: %w", err)
	}
	return conn, Dialect{Name: dbType}, nil
}

func sqliteDSN(url string) string {
	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	if strings.Contains(url, "?") {
		return url + "&" + params
	}
	return url + "?" + params
}

// TxOptions returns the options for read-write vote transactions.
//
// PostgreSQL uses read committed: the voter flag update matches only an
// unvoted row, ballot.voter_id is UNIQUE, and the tally UPDATE takes a row
// lock, so concurrent votes for one candidate queue on that lock instead
// of failing with a serialization error.
func (d Dialect) TxOptions() *sql.TxOptions {
	if d.Name == models.DatabasePostgres {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// SingleWriter reports whether write transactions never run concurrently.
// When true, a snapshot read inside a vote transaction reflects every
// vote committed before it and none after.
func (d Dialect) SingleWriter() bool {
	return d.Name != models.DatabasePostgres
}

// IsRetryable reports whether err is a transient contention failure
// after which the whole transaction may be tried again.
func (d Dialect) IsRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		return code == pqSerializationFailure || code == pqDeadlockDetected
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

// IsUniqueViolation reports whether err was caused by a UNIQUE or
// PRIMARY KEY constraint.
func (d Dialect) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pqUniqueViolation
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}
