// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Tally Booth API.

# Handler Types

Each handler is a struct built by a constructor:

  - VoterHandler: registration, login, and the voting page data
  - VotingHandler: casting a vote through the voting.Coordinator
  - ResultsHandler: tally snapshots, the live stream, and the audit

	voterHandler := handlers.NewVoterHandler(db, dialect, cfg)
	votingHandler := handlers.NewVotingHandler(coord, cfg)

# Voter Flow

	POST /api/register    → Register (citizen_id, password)
	POST /api/login       → Login (returns voter_token)
	GET  /api/voting-data → VotingData (parties and has_voted)
	POST /api/vote        → CastVote (party_id)

Voter operations after login require the X-Voter-Token header. CastVote
maps coordinator errors to status codes:

	ErrNotAuthenticated, ErrUnknownVoter → 401
	ErrUnknownCandidate                  → 400
	ErrAlreadyVoted                      → 409
	ErrStorage                           → 503

# Results

	GET /api/results        → GetResults (full snapshot)
	GET /api/results/stream → Stream (WebSocket)
	GET /api/audit          → Audit

The stream sends one results-snapshot frame followed by results-update
frames with increasing total_votes. Clients that reconnect receive a
fresh full snapshot, so a missed update is never fatal.
*/
package handlers
