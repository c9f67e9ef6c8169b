// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/tally-booth/models"
)

// Ballots is the append-only ballot table. There is no update or delete.
type Ballots struct {
	q Querier
}

func NewBallots(q Querier) *Ballots {
	return &Ballots{q: q}
}

// Append records a ballot. The voter_id column is UNIQUE, so a second
// ballot for the same voter fails even outside the coordinator.
func (b *Ballots) Append(ctx context.Context, ballot models.Ballot) error {
	_, err := b.q.ExecContext(ctx, `
		INSERT INTO ballot (id, voter_id, candidate_id, cast_at)
		VALUES ($1, $2, $3, $4)
	`, ballot.ID, ballot.VoterID, ballot.CandidateID, ballot.CastAt)
	if err != nil {
		return fmt.Errorf("failed to insert ballot: %w", err)
	}
	return nil
}

// ByVoter returns the ballot cast by voterID or ErrNotFound.
func (b *Ballots) ByVoter(ctx context.Context, voterID string) (models.Ballot, error) {
	var ballot models.Ballot
	err := b.q.QueryRowContext(ctx, `
		SELECT id, voter_id, candidate_id, cast_at
		FROM ballot
		WHERE voter_id = $1
	`, voterID).Scan(&ballot.ID, &ballot.VoterID, &ballot.CandidateID, &ballot.CastAt)
	if err == sql.ErrNoRows {
		return models.Ballot{}, ErrNotFound
	}
	if err != nil {
		return models.Ballot{}, fmt.Errorf("failed to query ballot: %w", err)
	}
	return ballot, nil
}

// Count returns the number of recorded ballots.
func (b *Ballots) Count(ctx context.Context) (int64, error) {
	var n int64
	err := b.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ballot`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count ballots: %w", err)
	}
	return n, nil
}

// CountByCandidate rebuilds the per-candidate tally from the ballots.
// Candidates without ballots are absent from the map.
func (b *Ballots) CountByCandidate(ctx context.Context) (map[int64]int64, error) {
	rows, err := b.q.QueryContext(ctx, `
		SELECT candidate_id, COUNT(*)
		FROM ballot
		GROUP BY candidate_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var id, n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan ballot count: %w", err)
		}
		counts[id] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to count ballots: %w", err)
	}
	return counts, nil
}
