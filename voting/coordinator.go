// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/danielhkuo/tally-booth/auth"
	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/models"
	"github.com/danielhkuo/tally-booth/store"
)

var (
	ErrNotAuthenticated = errors.New("voter is not authenticated")
	ErrUnknownVoter     = errors.New("unknown voter")
	ErrUnknownCandidate = errors.New("unknown candidate")
	ErrAlreadyVoted     = errors.New("voter has already voted")
	ErrStorage          = errors.New("storage failure")
)

// Publisher receives the tally snapshot after every committed vote.
type Publisher interface {
	Publish(models.TallySnapshot)
}

// Observer is told about each CastVote outcome. It must not block.
type Observer interface {
	VoteCast()
	VoteRejected(err error)
	TxRetried()
}

// Options tune the transaction behaviour of a Coordinator.
type Options struct {
	TxTimeout time.Duration    // Upper bound for a vote transaction, retries included
	TxRetries int              // Retries after a contention failure
	Observer  Observer         // Optional
	Now       func() time.Time // Stamps ballots and snapshots; defaults to time.Now
}

// Coordinator is the only writer of voter flags, ballots, and tallies.
type Coordinator struct {
	db        *sql.DB
	dialect   db.Dialect
	publisher Publisher
	observer  Observer
	txTimeout time.Duration
	txRetries int
	now       func() time.Time
}

func NewCoordinator(conn *sql.DB, dialect db.Dialect, publisher Publisher, opts Options) *Coordinator {
	c := &Coordinator{
		db:        conn,
		dialect:   dialect,
		publisher: publisher,
		observer:  opts.Observer,
		txTimeout: opts.TxTimeout,
		txRetries: opts.TxRetries,
		now:       opts.Now,
	}
	if c.txTimeout <= 0 {
		c.txTimeout = 5 * time.Second
	}
	if c.txRetries < 0 {
		c.txRetries = 0
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// CastVote records one ballot for voterID and returns the tally snapshot
// that includes it.
//
// The ledger check, ballot insert, ledger flag, and tally increment run in
// one transaction; a failure at any step leaves all three tables as they
// were. The transaction is detached from ctx cancellation, so a caller
// that goes away mid-vote still gets a fully applied or fully rolled back
// vote.
func (c *Coordinator) CastVote(ctx context.Context, voterID string, candidateID int64) (models.TallySnapshot, error) {
	snapshot, err := c.castVote(ctx, voterID, candidateID)
	if c.observer != nil {
		if err != nil {
			c.observer.VoteRejected(err)
		} else {
			c.observer.VoteCast()
		}
	}
	return snapshot, err
}

func (c *Coordinator) castVote(ctx context.Context, voterID string, candidateID int64) (models.TallySnapshot, error) {
	if voterID == "" {
		return models.TallySnapshot{}, ErrNotAuthenticated
	}

	// Preconditions. These only reject early; the transaction checks again.
	voted, err := store.NewLedger(c.db).HasVoted(ctx, voterID)
	if errors.Is(err, store.ErrNotFound) {
		return models.TallySnapshot{}, ErrUnknownVoter
	}
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	exists, err := store.NewRegistry(c.db).Exists(ctx, candidateID)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if !exists {
		return models.TallySnapshot{}, ErrUnknownCandidate
	}
	if voted {
		return models.TallySnapshot{}, ErrAlreadyVoted
	}

	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.txTimeout)
	defer cancel()

	var snapshot models.TallySnapshot
	policy := backoff.WithContext(
		backoff.WithMaxRetries(newBackOff(c.txTimeout), uint64(c.txRetries)),
		txCtx,
	)
	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if attempt > 1 && c.observer != nil {
			c.observer.TxRetried()
		}

		s, err := c.commitVote(txCtx, voterID, candidateID)
		if err == nil {
			snapshot = s
			return nil
		}
		if c.dialect.IsRetryable(err) {
			slog.Warn("vote transaction contention, retrying",
				"voter_id", voterID, "attempt", attempt, "error", err)
			return err
		}
		return backoff.Permanent(err)
	}, policy)

	switch {
	case err == nil:
	case errors.Is(err, ErrAlreadyVoted), errors.Is(err, ErrUnknownVoter), errors.Is(err, ErrUnknownCandidate):
		return models.TallySnapshot{}, err
	default:
		slog.Error("vote transaction failed",
			"voter_id", voterID, "candidate_id", candidateID, "attempts", attempt, "error", err)
		return models.TallySnapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}

	// With concurrent writers the in-transaction read can miss a vote that
	// committed alongside this one; a fresh read after commit catches it.
	if !c.dialect.SingleWriter() {
		latest, err := store.NewRegistry(c.db).Snapshot(txCtx)
		if err != nil {
			slog.Warn("failed to refresh snapshot after commit", "error", err)
		} else if latest.TotalVotes > snapshot.TotalVotes {
			snapshot = latest
		}
	}
	snapshot.TakenAt = c.now().UTC()

	slog.Info("vote recorded", "voter_id", voterID, "candidate_id", candidateID, "total_votes", snapshot.TotalVotes)

	// Fire-and-forget: the vote is committed whatever happens here.
	if c.publisher != nil {
		c.publisher.Publish(snapshot)
	}
	return snapshot, nil
}

// commitVote runs one attempt of the vote transaction.
func (c *Coordinator) commitVote(ctx context.Context, voterID string, candidateID int64) (models.TallySnapshot, error) {
	tx, err := c.db.BeginTx(ctx, c.dialect.TxOptions())
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledger := store.NewLedger(tx)
	ballots := store.NewBallots(tx)
	registry := store.NewRegistry(tx)

	// a. re-check under the transaction
	voted, err := ledger.HasVoted(ctx, voterID)
	if errors.Is(err, store.ErrNotFound) {
		return models.TallySnapshot{}, ErrUnknownVoter
	}
	if err != nil {
		return models.TallySnapshot{}, err
	}
	if voted {
		return models.TallySnapshot{}, ErrAlreadyVoted
	}

	// b. ballot
	err = ballots.Append(ctx, models.Ballot{
		ID:          auth.GenerateID(),
		VoterID:     voterID,
		CandidateID: candidateID,
		CastAt:      c.now().UTC(),
	})
	if err != nil {
		if c.dialect.IsUniqueViolation(err) {
			return models.TallySnapshot{}, ErrAlreadyVoted
		}
		return models.TallySnapshot{}, err
	}

	// c. ledger flag
	switch err := ledger.MarkVoted(ctx, voterID); {
	case errors.Is(err, store.ErrAlreadyVoted):
		return models.TallySnapshot{}, ErrAlreadyVoted
	case errors.Is(err, store.ErrNotFound):
		return models.TallySnapshot{}, ErrUnknownVoter
	case err != nil:
		return models.TallySnapshot{}, err
	}

	// d. tally
	_, err = registry.Increment(ctx, candidateID)
	if errors.Is(err, store.ErrNotFound) {
		return models.TallySnapshot{}, ErrUnknownCandidate
	}
	if err != nil {
		return models.TallySnapshot{}, err
	}

	snapshot, err := registry.Snapshot(ctx)
	if err != nil {
		return models.TallySnapshot{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.TallySnapshot{}, fmt.Errorf("failed to commit vote: %w", err)
	}
	return snapshot, nil
}

// Results returns the current tally snapshot.
func (c *Coordinator) Results(ctx context.Context) (models.TallySnapshot, error) {
	snapshot, err := store.NewRegistry(c.db).Snapshot(ctx)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	snapshot.TakenAt = c.now().UTC()
	return snapshot, nil
}

func newBackOff(maxElapsed time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = maxElapsed
	return b
}
