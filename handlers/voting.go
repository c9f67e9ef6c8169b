// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/tally-booth/cliparse"
	"github.com/danielhkuo/tally-booth/middleware"
	"github.com/danielhkuo/tally-booth/models"
	"github.com/danielhkuo/tally-booth/voting"
)

type VotingHandler struct {
	coord *voting.Coordinator
	cfg   cliparse.Config
}

func NewVotingHandler(coord *voting.Coordinator, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{coord: coord, cfg: cfg}
}

// CastVote handles POST /api/vote
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireVoter(w, r, h.cfg)
	if !ok {
		return
	}

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	snapshot, err := h.coord.CastVote(r.Context(), voterID, req.PartyID)
	switch {
	case err == nil:
	case errors.Is(err, voting.ErrNotAuthenticated), errors.Is(err, voting.ErrUnknownVoter):
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Unknown voter")
		return
	case errors.Is(err, voting.ErrUnknownCandidate):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown party")
		return
	case errors.Is(err, voting.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, "You have already voted")
		return
	default:
		slog.Error("failed to cast vote", "error", err, "voter_id", voterID)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Vote could not be recorded, please retry")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		Success: true,
		Message: "Vote recorded",
		Results: snapshot,
	})
}
