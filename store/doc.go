// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store provides the three tables the voting core works on.

  - Ledger: voters and their has_voted flag
  - Registry: candidates and their running tallies
  - Ballots: append-only (voter, candidate, cast_at) records

Each store wraps a Querier, which is either a *sql.DB or a *sql.Tx. The
coordinator builds all three on the same transaction so a vote either
lands in every table or in none:

	ledger := store.NewLedger(tx)
	ballots := store.NewBallots(tx)
	registry := store.NewRegistry(tx)

Read paths use the pool directly:

	snapshot, err := store.NewRegistry(conn).Snapshot(ctx)

# Write Rules

Only the voting coordinator calls MarkVoted, Increment, and Append.
Registration is limited to Ledger.Create, which always inserts an
unvoted voter.

MarkVoted is a compare-and-set on the has_voted column and Increment is a
single UPDATE ... RETURNING, so neither depends on a prior read.

# Audit

Audit recomputes tallies from ballots and reports every place where the
tables disagree:

	report, err := store.Audit(ctx, tx)
	if !report.OK() {
		// tallies and ballots have diverged
	}
*/
package store
