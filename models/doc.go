// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateTripRequest: name, destination, organizer_name
  - JoinTripRequest: display_name, avatar_ref
  - CreateSlotRequest: title, description, starts_at, roster_preferences
  - CastVoteRequest: choice (yes, maybe, or no)
  - ConfirmAlternativeRequest: alternative_id

# Response Types

Types for JSON responses:

  - CreateTripResponse: trip_id, organizer_key
  - PublishTripResponse: invite_slug, invite_url
  - JoinTripResponse: member_id, member_token
  - CreateSlotResponse: slot_id
  - CastVoteResponse / VerdictResponse: subject_id, verdict
  - SlotResponse: slot, verdict, resolution (when contested)
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Trip: trip metadata and lifecycle state
  - TripMember: roster entry with voting token
  - Slot: proposed itinerary entry put to a vote

Verdicts and resolution views come from the consensus and resolution
packages; models only re-exposes them in responses.

# Constants

Status values:

	StatusDraft = "draft"
	StatusOpen  = "open"
*/
package models
