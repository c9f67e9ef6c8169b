// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/tally-booth/auth"
	"github.com/danielhkuo/tally-booth/cliparse"
	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/middleware"
	"github.com/danielhkuo/tally-booth/models"
	"github.com/danielhkuo/tally-booth/store"
)

// VoterTokenHeader carries the token returned by Login
const VoterTokenHeader = "X-Voter-Token"

type VoterHandler struct {
	db      *sql.DB
	dialect db.Dialect
	cfg     cliparse.Config
}

func NewVoterHandler(db *sql.DB, dialect db.Dialect, cfg cliparse.Config) *VoterHandler {
	return &VoterHandler{db: db, dialect: dialect, cfg: cfg}
}

// Register handles POST /api/register
func (h *VoterHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := auth.ValidateCitizenID(req.CitizenID); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if errors.Is(err, auth.ErrWeakPassword) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	err = store.NewLedger(h.db).Create(r.Context(), models.Voter{
		ID:           auth.GenerateID(),
		CitizenID:    req.CitizenID,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if h.dialect.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusConflict, "Citizen ID already registered")
			return
		}
		slog.Error("failed to create voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to register")
		return
	}

	slog.Info("voter registered", "citizen_id", req.CitizenID)

	middleware.JSONResponse(w, http.StatusCreated, models.RegisterResponse{
		Success:   true,
		Message:   "Registration successful",
		CitizenID: req.CitizenID,
	})
}

// Login handles POST /api/login
func (h *VoterHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.CitizenID == "" || req.Password == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "citizen_id and password are required")
		return
	}

	voter, err := store.NewLedger(h.db).ByCitizenID(r.Context(), req.CitizenID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid citizen ID or password")
		return
	}
	if err != nil {
		slog.Error("failed to query voter", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	err = auth.CheckPassword(voter.PasswordHash, req.Password)
	if errors.Is(err, auth.ErrWrongPassword) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid citizen ID or password")
		return
	}
	if err != nil {
		slog.Error("failed to check password", "error", err, "voter_id", voter.ID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Success:    true,
		Message:    "Login successful",
		VoterToken: auth.GenerateVoterToken(voter.ID, h.cfg.TokenSalt, time.Now()),
		HasVoted:   voter.HasVoted,
	})
}

// VotingData handles GET /api/voting-data
func (h *VoterHandler) VotingData(w http.ResponseWriter, r *http.Request) {
	voterID, ok := requireVoter(w, r, h.cfg)
	if !ok {
		return
	}

	voter, err := store.NewLedger(h.db).ByID(r.Context(), voterID)
	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Unknown voter")
		return
	}
	if err != nil {
		slog.Error("failed to query voter", "error", err, "voter_id", voterID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	parties, err := store.NewRegistry(h.db).ListByName(r.Context())
	if err != nil {
		slog.Error("failed to list candidates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VotingDataResponse{
		CitizenID: voter.CitizenID,
		HasVoted:  voter.HasVoted,
		Parties:   parties,
	})
}

// requireVoter reads the voter id from the X-Voter-Token header and
// writes a 401 if it is missing, forged, or expired.
func requireVoter(w http.ResponseWriter, r *http.Request, cfg cliparse.Config) (string, bool) {
	token := r.Header.Get(VoterTokenHeader)
	if token == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, VoterTokenHeader+" header required")
		return "", false
	}

	voterID, err := auth.ParseVoterToken(token, cfg.TokenSalt, time.Now(), cfg.TokenTTL)
	if errors.Is(err, auth.ErrTokenExpired) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Voter token expired, please log in again")
		return "", false
	}
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid voter token")
		return "", false
	}
	return voterID, true
}
