// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package voting is the vote coordinator.

The Coordinator is the only component that writes voter flags, ballots,
and candidate tallies. CastVote checks its preconditions in a fixed
order (authenticated voter, known candidate, voter not yet voted) and
then applies the vote in a single transaction:

 1. re-read the voter's has_voted flag
 2. append the ballot (one per voter, enforced by a unique key)
 3. flip has_voted with a conditional update
 4. increment the candidate's tally
 5. read the tally snapshot that includes the vote

Either every write commits or none does. The transaction runs on a
context detached from the caller, bounded by Options.TxTimeout, so a
disconnecting client cannot leave a half-applied vote behind.
Serialization failures and lock contention are retried with exponential
backoff up to Options.TxRetries times.

On backends with concurrent writers (see db.Dialect.SingleWriter) the
snapshot is read again after commit and the one with the larger total is
kept. Snapshots are stamped with Options.Now.

After a successful commit the snapshot is handed to the Publisher. The
vote is durable at that point; delivery to subscribers is best effort.

Errors returned by CastVote wrap one of ErrNotAuthenticated,
ErrUnknownVoter, ErrUnknownCandidate, ErrAlreadyVoted, or ErrStorage.
*/
package voting
