// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Tally Booth API server.

Tally Booth is a single-instance election server. Registered citizens cast
exactly one ballot each; candidate tallies are updated in the same
transaction as the ballot and pushed live to WebSocket subscribers.

# Starting the Server

The server requires a token salt and otherwise runs on SQLite:

	TOKEN_SALT=change-me go run .

Or with flags and PostgreSQL:

	go run . -p 3000 -t postgres -d "postgres://..." -token-salt change-me

A .env file in the working directory is read first; -env selects another.

# Configuration

Required settings:

  - TOKEN_SALT (-token-salt): Secret for voter token HMAC

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): File path or connection string (default: voting.db for sqlite)
  - CANDIDATES_FILE (-candidates): YAML candidate list (default: built-in parties)
  - SUBSCRIBER_BUFFER (-buffer): Per-subscriber snapshot buffer (default: 16)
  - TX_TIMEOUT (-tx-timeout): Vote transaction bound (default: 5s)
  - TX_RETRIES (-tx-retries): Retries on write contention (default: 5)
  - TOKEN_TTL (-token-ttl): Voter token lifetime (default: 12h)

# Architecture

  - voting: the coordinator, sole writer of ballots, voter flags, and tallies
  - store: ledger, registry, ballot store, and audit over database/sql
  - notify: snapshot fan-out with bounded per-subscriber buffers
  - handlers: HTTP request handlers (voters, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - metric: Prometheus metrics
  - models: Domain and request/response types
  - auth: ids, passwords, and voter tokens
  - db: connection, schema, and candidate bootstrap
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
