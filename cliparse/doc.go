// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3000)
  - DatabaseURL: SQLite path/DSN or PostgreSQL connection string
  - DatabaseType: "sqlite" (default) or "postgres"
  - TokenSalt: Secret for voter token HMAC (required)
  - TokenTTL: Voter token lifetime (default: 12h, 0 disables expiry)
  - CandidatesFile: YAML candidate list (optional, built-in parties otherwise)
  - SubscriberBuffer: Snapshots buffered per live subscriber (default: 16)
  - TxTimeout: Upper bound for one vote transaction (default: 5s)
  - TxRetries: Retries on write contention (default: 5)

# CLI Flags

	-p            Server port
	-d            Database URL
	-t            Database type
	-env          .env file to load (default: .env)
	-candidates   Candidate list file
	-buffer       Subscriber buffer
	-tx-timeout   Vote transaction timeout
	-tx-retries   Vote transaction retries
	-token-salt   Voter token salt
	-token-ttl    Voter token lifetime

# Environment Variables

Flags fall back to environment variables:

	PORT              → -p
	DATABASE_URL      → -d
	DATABASE_TYPE     → -t
	CANDIDATES_FILE   → -candidates
	SUBSCRIBER_BUFFER → -buffer
	TX_TIMEOUT        → -tx-timeout
	TX_RETRIES        → -tx-retries
	TOKEN_SALT        → -token-salt
	TOKEN_TTL         → -token-ttl

CLI flags take precedence over environment variables. A .env file, if
present, is loaded with godotenv before the fallback and never overrides
variables that are already set.

# Validation

ParseFlags returns an error if:

  - DATABASE_URL is missing for postgres (sqlite defaults to voting.db)
  - DATABASE_TYPE is neither sqlite nor postgres
  - TOKEN_SALT is missing
  - SUBSCRIBER_BUFFER is below 1
  - TOKEN_TTL is not a duration or is negative
*/
package cliparse
