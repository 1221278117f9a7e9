// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Detour API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, engine)

# Endpoints

Health:

	GET /health

Trip management (organizer, requires X-Organizer-Key):

	POST /trips              - Create trip
	GET  /trips/{id}/admin   - Get trip details
	POST /trips/{id}/publish - Open for joining
	POST /trips/{id}/slots   - Open a slot for voting

Joining (public, uses invite slug):

	POST /trips/{slug}/join - Join the roster

Voting (requires X-Member-Token):

	POST /subjects/{id}/votes   - Cast or change a vote
	GET  /subjects/{id}/votes   - Per-member choices
	GET  /subjects/{id}/verdict - Current verdict

Slot detail and resolution:

	GET  /slots/{id}               - Slot, verdict, session view
	POST /resolutions/{id}/confirm - Lock in an alternative (organizer)
	POST /resolutions/{id}/abandon - Escalate to manual planning (organizer)

# Handler Initialization

The router creates handler instances with dependency injection:

	tripHandler := handlers.NewTripHandler(db, cfg, engine)
	memberHandler := handlers.NewMemberHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg, engine)
	resolutionHandler := handlers.NewResolutionHandler(db, cfg, engine)

Handlers receive the database connection, configuration, and the shared
consensus engine.
*/
package router
