// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"time"

	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/resolution"
)

// Trip status constants
const (
	StatusDraft = "draft"
	StatusOpen  = "open"
)

// Request types

type CreateTripRequest struct {
	Name          string `json:"name"`
	Destination   string `json:"destination"`
	OrganizerName string `json:"organizer_name"`
}

type JoinTripRequest struct {
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

type CreateSlotRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`

	// RosterPreferences is forwarded opaquely to the activity search
	// service if this slot ends up contested.
	RosterPreferences map[string]float64 `json:"roster_preferences,omitempty"`
}

type CastVoteRequest struct {
	Choice string `json:"choice"`
}

type ConfirmAlternativeRequest struct {
	AlternativeID string `json:"alternative_id"`
}

// Response types

type CreateTripResponse struct {
	TripID       string `json:"trip_id"`
	OrganizerKey string `json:"organizer_key"`
}

type PublishTripResponse struct {
	InviteSlug string `json:"invite_slug"`
	InviteURL  string `json:"invite_url"`
}

type JoinTripResponse struct {
	MemberID    string `json:"member_id"`
	MemberToken string `json:"member_token"`
}

type CreateSlotResponse struct {
	SlotID string `json:"slot_id"`
}

type CastVoteResponse struct {
	SubjectID string            `json:"subject_id"`
	Verdict   consensus.Verdict `json:"verdict"`
}

type VotesResponse struct {
	SubjectID string                 `json:"subject_id"`
	Votes     []consensus.MemberVote `json:"votes"`
}

type VerdictResponse struct {
	SubjectID string            `json:"subject_id"`
	Verdict   consensus.Verdict `json:"verdict"`
}

type SlotResponse struct {
	Slot       Slot              `json:"slot"`
	Verdict    consensus.Verdict `json:"verdict"`
	Resolution *resolution.View  `json:"resolution,omitempty"`
}

// Domain types

type Trip struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Destination   string    `json:"destination"`
	OrganizerName string    `json:"organizer_name"`
	Status        string    `json:"status"`
	InviteSlug    *string   `json:"invite_slug,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type TripMember struct {
	ID          string    `json:"id"`
	TripID      string    `json:"trip_id"`
	DisplayName string    `json:"display_name"`
	AvatarRef   *string   `json:"avatar_ref,omitempty"`
	MemberToken string    `json:"-"` // Never expose in JSON
	IPHash      *string   `json:"-"` // Never expose in JSON
	JoinedAt    time.Time `json:"joined_at"`
}

type Slot struct {
	ID                    string     `json:"id"`
	TripID                string     `json:"trip_id"`
	Title                 string     `json:"title"`
	Description           string     `json:"description"`
	StartsAt              *time.Time `json:"starts_at,omitempty"`
	ResolvedAlternativeID *string    `json:"resolved_alternative_id,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
}

type TripWithDetail struct {
	Trip    Trip         `json:"trip"`
	Members []TripMember `json:"members"`
	Slots   []Slot       `json:"slots"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
