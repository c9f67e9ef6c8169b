// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/tally-booth/cliparse"
	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/handlers"
	"github.com/danielhkuo/tally-booth/metric"
	"github.com/danielhkuo/tally-booth/middleware"
	"github.com/danielhkuo/tally-booth/notify"
	"github.com/danielhkuo/tally-booth/voting"
)

func NewRouter(conn *sql.DB, dialect db.Dialect, cfg cliparse.Config, coord *voting.Coordinator, hub *notify.Hub, metrics *metric.Metrics) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	voterHandler := handlers.NewVoterHandler(conn, dialect, cfg)
	votingHandler := handlers.NewVotingHandler(coord, cfg)
	resultsHandler := handlers.NewResultsHandler(conn, dialect, coord, hub)

	route := func(h http.HandlerFunc) http.HandlerFunc {
		return metrics.Count(middleware.WithLogging(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Voter identity
	mux.HandleFunc("POST /api/register", route(voterHandler.Register))
	mux.HandleFunc("POST /api/login", route(voterHandler.Login))
	mux.HandleFunc("GET /api/voting-data", route(voterHandler.VotingData))

	// Voting
	mux.HandleFunc("POST /api/vote", route(votingHandler.CastVote))

	// Results (public)
	mux.HandleFunc("GET /api/results", route(resultsHandler.GetResults))
	mux.HandleFunc("GET /api/results/stream", route(resultsHandler.Stream))
	mux.HandleFunc("GET /api/audit", route(resultsHandler.Audit))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tally-booth API v1"))
	})

	return mux
}
