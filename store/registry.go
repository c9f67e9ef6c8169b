// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/danielhkuo/tally-booth/models"
)

// Registry is the candidate table and its running tallies.
type Registry struct {
	q Querier
}

func NewRegistry(q Querier) *Registry {
	return &Registry{q: q}
}

// List returns every candidate ordered by tally descending, then name
// ascending (byte order, independent of the database collation).
func (r *Registry) List(ctx context.Context) ([]models.CandidateTally, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name, tally
		FROM candidate
		ORDER BY tally DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	tallies := []models.CandidateTally{}
	for rows.Next() {
		var c models.CandidateTally
		if err := rows.Scan(&c.ID, &c.Name, &c.Tally); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		tallies = append(tallies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	slices.SortStableFunc(tallies, func(a, b models.CandidateTally) int {
		if c := cmp.Compare(b.Tally, a.Tally); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return tallies, nil
}

// ListByName returns the candidates without tallies, ordered by name.
func (r *Registry) ListByName(ctx context.Context) ([]models.Candidate, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, name FROM candidate ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	slices.SortStableFunc(candidates, func(a, b models.Candidate) int {
		return strings.Compare(a.Name, b.Name)
	})
	return candidates, nil
}

// Exists reports whether a candidate with the given id exists.
func (r *Registry) Exists(ctx context.Context, candidateID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM candidate WHERE id = $1)
	`, candidateID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query candidate: %w", err)
	}
	return exists, nil
}

// Increment adds one to the candidate's tally and returns the new value.
// The read-modify-write happens inside a single UPDATE, so concurrent
// increments are never lost. An unknown id changes nothing and returns
// ErrNotFound.
func (r *Registry) Increment(ctx context.Context, candidateID int64) (int64, error) {
	var tally int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE candidate SET tally = tally + 1
		WHERE id = $1
		RETURNING tally
	`, candidateID).Scan(&tally)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to increment tally: %w", err)
	}
	return tally, nil
}

// Snapshot returns List together with the total and the time it was taken.
func (r *Registry) Snapshot(ctx context.Context) (models.TallySnapshot, error) {
	tallies, err := r.List(ctx)
	if err != nil {
		return models.TallySnapshot{}, err
	}

	var total int64
	for _, t := range tallies {
		total += t.Tally
	}
	return models.TallySnapshot{
		Results:    tallies,
		TotalVotes: total,
		TakenAt:    time.Now().UTC(),
	}, nil
}
