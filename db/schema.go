// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The statements are valid for both SQLite and PostgreSQL.
const schema = `
-- Voters
CREATE TABLE IF NOT EXISTS voter (
    id TEXT PRIMARY KEY,
    citizen_id TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Candidates
CREATE TABLE IF NOT EXISTS candidate (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    tally BIGINT NOT NULL DEFAULT 0 CHECK (tally >= 0)
);

CREATE INDEX IF NOT EXISTS idx_candidate_tally ON candidate(tally DESC, name);

-- Ballots
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    voter_id TEXT NOT NULL UNIQUE REFERENCES voter(id),
    candidate_id BIGINT NOT NULL REFERENCES candidate(id),
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_ballot_candidate_id ON ballot(candidate_id);
`
