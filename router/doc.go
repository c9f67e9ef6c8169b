// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Tally Booth API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, dialect, cfg, coord, hub, metrics)

# Endpoints

Health and metrics:

	GET /health  - Database ping
	GET /metrics - Prometheus exposition

Voter identity:

	POST /api/register    - Register a citizen id
	POST /api/login       - Exchange credentials for a voter token
	GET  /api/voting-data - Parties and the voter's has_voted flag

Voting (requires X-Voter-Token):

	POST /api/vote - Cast the voter's single ballot

Results (public):

	GET /api/results        - Current tally snapshot
	GET /api/results/stream - WebSocket stream of tally updates
	GET /api/audit          - Consistency report over tallies and ballots

Every /api route is wrapped with request logging and HTTP metrics.
*/
package router
