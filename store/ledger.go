// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/danielhkuo/tally-booth/models"
)

// Ledger is the voter table: identity plus the has_voted flag.
type Ledger struct {
	q Querier
}

func NewLedger(q Querier) *Ledger {
	return &Ledger{q: q}
}

// Create inserts a voter that has not voted yet. A UNIQUE violation on
// citizen_id is returned wrapped so callers can classify it.
func (l *Ledger) Create(ctx context.Context, v models.Voter) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	_, err := l.q.ExecContext(ctx, `
		INSERT INTO voter (id, citizen_id, password_hash, has_voted, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
	`, v.ID, v.CitizenID, v.PasswordHash, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert voter: %w", err)
	}
	return nil
}

// ByID returns the voter with the given id or ErrNotFound.
func (l *Ledger) ByID(ctx context.Context, voterID string) (models.Voter, error) {
	return l.scanOne(ctx, `
		SELECT id, citizen_id, password_hash, has_voted, created_at
		FROM voter
		WHERE id = $1
	`, voterID)
}

// ByCitizenID returns the voter registered under citizenID or ErrNotFound.
func (l *Ledger) ByCitizenID(ctx context.Context, citizenID string) (models.Voter, error) {
	return l.scanOne(ctx, `
		SELECT id, citizen_id, password_hash, has_voted, created_at
		FROM voter
		WHERE citizen_id = $1
	`, citizenID)
}

func (l *Ledger) scanOne(ctx context.Context, query, arg string) (models.Voter, error) {
	var v models.Voter
	err := l.q.QueryRowContext(ctx, query, arg).Scan(
		&v.ID, &v.CitizenID, &v.PasswordHash, &v.HasVoted, &v.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Voter{}, ErrNotFound
	}
	if err != nil {
		return models.Voter{}, fmt.Errorf("failed to query voter: %w", err)
	}
	return v, nil
}

// HasVoted reports the voter's flag, or ErrNotFound.
func (l *Ledger) HasVoted(ctx context.Context, voterID string) (bool, error) {
	var hasVoted bool
	err := l.q.QueryRowContext(ctx, `
		SELECT has_voted FROM voter WHERE id = $1
	`, voterID).Scan(&hasVoted)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to query has_voted: %w", err)
	}
	return hasVoted, nil
}

// MarkVoted flips has_voted from false to true. The update only matches
// an unvoted row, so of two concurrent callers for the same voter exactly
// one sees a changed row; the other gets ErrAlreadyVoted.
func (l *Ledger) MarkVoted(ctx context.Context, voterID string) error {
	res, err := l.q.ExecContext(ctx, `
		UPDATE voter SET has_voted = TRUE
		WHERE id = $1 AND has_voted = FALSE
	`, voterID)
	if err != nil {
		return fmt.Errorf("failed to mark voter: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark voter: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := l.HasVoted(ctx, voterID); err != nil {
		return err
	}
	return ErrAlreadyVoted
}

// CountVoted returns the number of voters whose flag is set.
func (l *Ledger) CountVoted(ctx context.Context) (int64, error) {
	var n int64
	err := l.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM voter WHERE has_voted = TRUE
	`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count voters: %w", err)
	}
	return n, nil
}
