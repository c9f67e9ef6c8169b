// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/middleware"
	"github.com/danielhkuo/tally-booth/models"
	"github.com/danielhkuo/tally-booth/notify"
	"github.com/danielhkuo/tally-booth/store"
	"github.com/danielhkuo/tally-booth/voting"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type ResultsHandler struct {
	db       *sql.DB
	dialect  db.Dialect
	coord    *voting.Coordinator
	hub      *notify.Hub
	upgrader websocket.Upgrader
}

func NewResultsHandler(db *sql.DB, dialect db.Dialect, coord *voting.Coordinator, hub *notify.Hub) *ResultsHandler {
	return &ResultsHandler{
		db:      db,
		dialect: dialect,
		coord:   coord,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Same policy as the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// GetResults handles GET /api/results
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.coord.Results(r.Context())
	if err != nil {
		slog.Error("failed to read results", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Results unavailable")
		return
	}
	middleware.JSONResponse(w, http.StatusOK, snapshot)
}

// Stream handles GET /api/results/stream.
//
// The first frame is a full results-snapshot read after subscribing, so
// no committed vote falls between it and the first results-update. Updates
// that do not advance the total are skipped.
func (h *ResultsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe()
	defer sub.Close()

	snapshot, err := h.coord.Results(r.Context())
	if err != nil {
		slog.Error("failed to read results for stream", "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "results unavailable"),
			time.Now().Add(writeWait))
		return
	}
	if err := writeEvent(conn, models.EventResultsSnapshot, snapshot); err != nil {
		return
	}
	last := snapshot.TotalVotes

	done := make(chan struct{})
	go readPump(conn, done)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case s, ok := <-sub.C():
			if !ok {
				// Hub closed on shutdown
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if s.TotalVotes <= last {
				continue
			}
			if err := writeEvent(conn, models.EventResultsUpdate, s); err != nil {
				slog.Debug("stream write failed", "error", err)
				return
			}
			last = s.TotalVotes
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event string, snapshot models.TallySnapshot) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(models.StreamEvent{Event: event, Snapshot: snapshot})
}

// readPump discards client frames and closes done once the peer goes away
// or stops answering pings.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Audit handles GET /api/audit
func (h *ResultsHandler) Audit(w http.ResponseWriter, r *http.Request) {
	tx, err := h.db.BeginTx(r.Context(), h.dialect.TxOptions())
	if err != nil {
		slog.Error("failed to begin audit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Audit unavailable")
		return
	}
	defer tx.Rollback()

	report, err := store.Audit(r.Context(), tx)
	if err != nil {
		slog.Error("failed to audit", "error", err)
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Audit unavailable")
		return
	}

	if !report.OK() {
		slog.Error("audit found inconsistencies",
			"total_tally", report.TotalTally,
			"ballots", report.BallotCount,
			"voted", report.VotedVoterCount,
			"mismatched", len(report.Mismatched),
		)
	}

	middleware.JSONResponse(w, http.StatusOK, models.AuditResponse{
		OK:          report.OK(),
		AuditReport: report,
	})
}
