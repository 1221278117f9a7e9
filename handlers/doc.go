// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Detour API.

# Handler Types

Each handler is a struct with database, config, and engine dependencies:

  - TripHandler: Trip lifecycle (create, publish, admin view) and slots
  - MemberHandler: Joining a trip via invite slug
  - VoteHandler: Vote casting and verdict retrieval
  - ResolutionHandler: Slot detail, alternative lock-in, abandonment

Handlers are created via constructor functions:

	tripHandler := handlers.NewTripHandler(db, cfg, engine)

# Trip Lifecycle

Trips progress from draft to open:

	POST /trips              → CreateTrip (returns organizer_key)
	POST /trips/{id}/publish → PublishTrip (generates invite_slug)
	GET  /trips/{id}/admin   → GetTripAdmin
	POST /trips/{id}/slots   → CreateSlot (open trips, roster of 2+)

Organizer operations require the X-Organizer-Key header.

# Voting Flow

Members join via the invite slug and vote with their token:

	POST /trips/{slug}/join     → JoinTrip (returns member_token)
	POST /subjects/{id}/votes   → CastVote (yes, maybe, or no)
	GET  /subjects/{id}/votes   → GetVotes (per-member choices)
	GET  /subjects/{id}/verdict → GetVerdict

A subject is either an itinerary slot or an alternative spawned by a
contested one; CastVote routes to whichever ledger owns the id. Member
operations require the X-Member-Token header.

# Resolution Flow

When a slot splits the group, the engine starts a resolution session and
fetches alternatives in the background. Clients watch it through the
slot detail endpoint and the organizer settles it:

	GET  /slots/{id}                 → GetSlot (slot + verdict + session view)
	POST /resolutions/{id}/confirm   → ConfirmAlternative (organizer)
	POST /resolutions/{id}/abandon   → AbandonResolution (organizer)

Engine errors map onto HTTP statuses in engineErrorResponse: unknown
subjects and sessions are 404s, roster violations are 403s, and state
machine conflicts (closed ledgers, unagreed confirms, finished sessions)
are 409s.
*/
package handlers
