// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"

	"github.com/danielhkuo/tally-booth/models"
)

// Audit reconciles the three tables. Run it on a transaction to get a
// consistent view; on a plain *sql.DB concurrent votes can show up as
// transient differences.
func Audit(ctx context.Context, q Querier) (models.AuditReport, error) {
	report := models.AuditReport{
		Mismatched:      []models.CandidateMismatch{},
		FlaggedNoBallot: []string{},
		BallotNoFlag:    []string{},
	}

	tallies, err := NewRegistry(q).List(ctx)
	if err != nil {
		return report, err
	}

	ballots := NewBallots(q)
	counts, err := ballots.CountByCandidate(ctx)
	if err != nil {
		return report, err
	}
	if report.BallotCount, err = ballots.Count(ctx); err != nil {
		return report, err
	}
	if report.VotedVoterCount, err = NewLedger(q).CountVoted(ctx); err != nil {
		return report, err
	}

	for _, t := range tallies {
		report.TotalTally += t.Tally
		if n := counts[t.ID]; n != t.Tally {
			report.Mismatched = append(report.Mismatched, models.CandidateMismatch{
				CandidateID: t.ID,
				Tally:       t.Tally,
				Ballots:     n,
			})
		}
	}

	report.FlaggedNoBallot, err = voterIDs(ctx, q, `
		SELECT v.id
		FROM voter v
		LEFT JOIN ballot b ON b.voter_id = v.id
		WHERE v.has_voted = TRUE AND b.id IS NULL
		ORDER BY v.id
	`)
	if err != nil {
		return report, err
	}

	report.BallotNoFlag, err = voterIDs(ctx, q, `
		SELECT b.voter_id
		FROM ballot b
		JOIN voter v ON v.id = b.voter_id
		WHERE v.has_voted = FALSE
		ORDER BY b.voter_id
	`)
	if err != nil {
		return report, err
	}

	return report, nil
}

func voterIDs(ctx context.Context, q Querier, query string) ([]string, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to audit voters: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan voter id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to audit voters: %w", err)
	}
	return ids, nil
}
