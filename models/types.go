package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Database type constants
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
)

// Stream event names
const (
	EventResultsSnapshot = "results-snapshot"
	EventResultsUpdate   = "results-update"
)

// Request types

type RegisterRequest struct {
	CitizenID string `json:"citizen_id"`
	Password  string `json:"password"`
}

type LoginRequest struct {
	CitizenID string `json:"citizen_id"`
	Password  string `json:"password"`
}

type CastVoteRequest struct {
	PartyID int64 `json:"party_id"`
}

// UnmarshalJSON accepts party_id either as a number or as a numeric
// string, which is what an HTML radio value serializes to.
func (r *CastVoteRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		PartyID json.Number `json:"party_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.PartyID == "" {
		r.PartyID = 0
		return nil
	}
	id, err := raw.PartyID.Int64()
	if err != nil {
		return fmt.Errorf("invalid party_id %q: %w", raw.PartyID, err)
	}
	r.PartyID = id
	return nil
}

// Response types

type RegisterResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CitizenID string `json:"citizen_id"`
}

type LoginResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	VoterToken string `json:"voter_token"`
	HasVoted   bool   `json:"has_voted"`
}

type VotingDataResponse struct {
	CitizenID string      `json:"citizen_id"`
	HasVoted  bool        `json:"has_voted"`
	Parties   []Candidate `json:"parties"`
}

type CastVoteResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Results TallySnapshot `json:"results"`
}

// Sent over the results stream
type StreamEvent struct {
	Event    string        `json:"event"`
	Snapshot TallySnapshot `json:"snapshot"`
}

// Domain types

type Voter struct {
	ID           string    `json:"id"`
	CitizenID    string    `json:"citizen_id"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	HasVoted     bool      `json:"has_voted"`
	CreatedAt    time.Time `json:"created_at"`
}

type Candidate struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type CandidateTally struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Tally int64  `json:"vote_count"`
}

type Ballot struct {
	ID          string    `json:"id"`
	VoterID     string    `json:"voter_id"`
	CandidateID int64     `json:"candidate_id"`
	CastAt      time.Time `json:"cast_at"`
}

// TallySnapshot is the full set of tallies at one point in time.
// Results are ordered by tally descending, then name ascending.
type TallySnapshot struct {
	Results    []CandidateTally `json:"results"`
	TotalVotes int64            `json:"total_votes"`
	TakenAt    time.Time        `json:"taken_at"`
}

// Tally returns the tally of the given candidate and whether it is
// part of the snapshot.
func (s TallySnapshot) Tally(candidateID int64) (int64, bool) {
	for _, r := range s.Results {
		if r.ID == candidateID {
			return r.Tally, true
		}
	}
	return 0, false
}

type AuditReport struct {
	TotalTally      int64               `json:"total_tally"`
	BallotCount     int64               `json:"ballot_count"`
	VotedVoterCount int64               `json:"voted_voter_count"`
	Mismatched      []CandidateMismatch `json:"mismatched_candidates"`
	FlaggedNoBallot []string            `json:"flagged_without_ballot"`
	BallotNoFlag    []string            `json:"ballot_without_flag"`
}

type CandidateMismatch struct {
	CandidateID int64 `json:"candidate_id"`
	Tally       int64 `json:"tally"`
	Ballots     int64 `json:"ballots"`
}

// OK reports whether the tallies agree with the ballots and every voted
// voter owns exactly one ballot.
func (r AuditReport) OK() bool {
	return r.TotalTally == r.BallotCount &&
		r.BallotCount == r.VotedVoterCount &&
		len(r.Mismatched) == 0 &&
		len(r.FlaggedNoBallot) == 0 &&
		len(r.BallotNoFlag) == 0
}

type AuditResponse struct {
	OK bool `json:"ok"`
	AuditReport
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
