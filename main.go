package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/tally-booth/cliparse"
	"github.com/danielhkuo/tally-booth/db"
	"github.com/danielhkuo/tally-booth/metric"
	"github.com/danielhkuo/tally-booth/middleware"
	"github.com/danielhkuo/tally-booth/notify"
	"github.com/danielhkuo/tally-booth/router"
	"github.com/danielhkuo/tally-booth/store"
	"github.com/danielhkuo/tally-booth/voting"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Connect and verify
	dbConn, dialect, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err, "type", cfg.DatabaseType)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(ctx, dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dialect.Name)

	// Seed candidates
	candidates := db.DefaultCandidates()
	if cfg.CandidatesFile != "" {
		candidates, err = db.LoadCandidates(cfg.CandidatesFile)
		if err != nil {
			slog.Error("failed to load candidates", "error", err, "file", cfg.CandidatesFile)
			os.Exit(1)
		}
	}
	inserted, err := db.SeedCandidates(ctx, dbConn, candidates)
	if err != nil {
		slog.Error("failed to seed candidates", "error", err)
		os.Exit(1)
	}
	slog.Info("Candidates ready", "count", len(candidates), "inserted", inserted)

	// Audit what a previous run left behind
	report, err := store.Audit(ctx, dbConn)
	if err != nil {
		slog.Error("startup audit failed", "error", err)
		os.Exit(1)
	}
	if report.OK() {
		slog.Info("Startup audit passed",
			"votes", humanize.Comma(report.TotalTally),
			"ballots", humanize.Comma(report.BallotCount),
		)
	} else {
		slog.Error("Startup audit found inconsistencies",
			"tally", humanize.Comma(report.TotalTally),
			"ballots", humanize.Comma(report.BallotCount),
			"voted", humanize.Comma(report.VotedVoterCount),
			"mismatched_candidates", len(report.Mismatched),
			"flagged_without_ballot", len(report.FlaggedNoBallot),
			"ballot_without_flag", len(report.BallotNoFlag),
		)
	}

	// Voting core
	hub := notify.NewHub(cfg.SubscriberBuffer)
	metrics := metric.New()
	metrics.ObserveNotifier(hub)
	coord := voting.NewCoordinator(dbConn, dialect, hub, voting.Options{
		TxTimeout: cfg.TxTimeout,
		TxRetries: cfg.TxRetries,
		Observer:  metrics,
	})

	// Create router
	mux := router.NewRouter(dbConn, dialect, cfg, coord, hub, metrics)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc

		// Let in-flight votes commit, then end the streams
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.TxTimeout+time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "error", err)
			server.Close()
		}
		hub.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port, "candidates", humanize.Comma(int64(len(candidates))))
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
