// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - RegisterRequest: citizen_id, password
  - LoginRequest: citizen_id, password
  - CastVoteRequest: party_id (a number or a numeric string)

# Response Types

Types for JSON responses:

  - RegisterResponse: success, message, citizen_id
  - LoginResponse: success, message, voter_token, has_voted
  - VotingDataResponse: citizen_id, has_voted, parties
  - CastVoteResponse: success, message, results
  - StreamEvent: event, snapshot (WebSocket frames)
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Voter: citizen identity and has_voted flag
  - Candidate: party id and display name
  - CandidateTally: party with its running vote_count
  - Ballot: immutable (voter, candidate, cast_at) record
  - TallySnapshot: every tally at one point in time, plus total_votes
  - AuditReport: reconciliation of tallies against ballots

# Snapshot Ordering

TallySnapshot.Results is ordered by vote_count descending and then by
name ascending, so equal tallies always render in the same order.
TotalVotes only ever grows; observers use it to discard stale snapshots.

# Constants

Database types:

	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"

Stream events:

	EventResultsSnapshot = "results-snapshot"
	EventResultsUpdate   = "results-update"
*/
package models
