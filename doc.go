// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Detour API server.

Detour is a trip-planning service for small groups. Members vote yes,
maybe, or no on itinerary slots; when a vote splits the group into
camps, the service fetches alternative activities and runs structured
re-voting rounds until the group agrees or the decision escalates back
to humans.

# Starting the Server

The server requires environment variables or CLI flags for
configuration:

	DATABASE_URL=detour.db go run main.go

Or with flags:

	go run main.go -p 3319 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite path or PostgreSQL connection string
  - ORGANIZER_KEY_SALT (-organizer-salt): Secret for organizer key HMAC
  - INVITE_SLUG_SALT (-slug-salt): Secret for invite slug generation

Optional settings:

  - PORT (-p): Server port (default: 3319)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - SEARCH_URL (-search-url): Activity search service base URL
  - QUORUM_FRACTION, SPLIT_THRESHOLD, CONFIRM_THRESHOLD: Consensus
    policy overrides in (0, 1]
  - MAX_ALTERNATIVES, MAX_RESOLUTION_ROUNDS: Resolution bounds
  - ALTERNATIVE_FETCH_TIMEOUT_MS: Search deadline

# Architecture

The consensus engine is a library; the HTTP server hosts it:

  - consensus: Vote ledgers, camp detection, verdict policy
  - resolution: Resolution sessions, alternative fetch, lock-in
  - signals: Engine event emission
  - search: HTTP client for the activity search service
  - handlers: HTTP request handlers (trips, members, voting, resolution)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Token generation and validation
  - db: Schema creation and snapshot persistence
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
