// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles connections, schema creation, and candidate bootstrap.

# Connecting

Open returns a verified connection and the Dialect for it:

	conn, dialect, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite (modernc.org/sqlite, no cgo) is the default. The pool is capped at
one connection and transactions begin IMMEDIATE, so SQLite has exactly one
writer. PostgreSQL (github.com/lib/pq) runs vote transactions at
read committed; concurrent votes for one candidate wait on its row lock.

# Dialect

Dialect classifies driver errors for the layers above:

  - IsRetryable: serialization failure or deadlock (postgres), SQLITE_BUSY
    or SQLITE_LOCKED (sqlite)
  - IsUniqueViolation: UNIQUE / PRIMARY KEY conflicts
  - TxOptions: isolation for read-write transactions
  - SingleWriter: whether write transactions can run concurrently

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

	voter(id, citizen_id, password_hash, has_voted, created_at)
	candidate(id, name, tally)
	ballot(id, voter_id, candidate_id, cast_at)

# Relationships

	voter 1──0..1 ballot   (UNIQUE voter_id)
	candidate 1──* ballot

# Candidates

The candidate set is fixed once bootstrapped. LoadCandidates reads a YAML
list (or falls back to DefaultCandidates) and SeedCandidates inserts the
rows that are missing without ever touching a stored tally:

	candidates, err := db.LoadCandidates(cfg.CandidatesFile)
	inserted, err := db.SeedCandidates(ctx, conn, candidates)
*/
package db
