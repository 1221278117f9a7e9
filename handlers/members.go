// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/detour/auth"
	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/middleware"
	"github.com/danielhkuo/detour/models"
)

type MemberHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewMemberHandler(db *sql.DB, cfg cliparse.Config) *MemberHandler {
	return &MemberHandler{db: db, cfg: cfg}
}

// JoinTrip handles POST /trips/:slug/join
func (h *MemberHandler) JoinTrip(w http.ResponseWriter, r *http.Request) {
	inviteSlug := r.PathValue("slug")
	if inviteSlug == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slug is required")
		return
	}

	// Parse request
	var req models.JoinTripRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.DisplayName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "display_name is required")
		return
	}

	// Validate display name (basic validation)
	if len(req.DisplayName) < 2 || len(req.DisplayName) > 50 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "display_name must be 2-50 characters")
		return
	}

	// Find trip by invite slug
	var tripID string
	var status string
	err := h.db.QueryRow(`
		SELECT id, status FROM trip WHERE invite_slug = $1
	`, inviteSlug).Scan(&tripID, &status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		slog.Error("failed to query trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Can only join open trips
	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Trip is not open for joining")
		return
	}

	// Generate member ID and token
	memberID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate member ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join trip")
		return
	}

	memberToken, err := auth.GenerateMemberToken()
	if err != nil {
		slog.Error("failed to generate member token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join trip")
		return
	}

	// Hash the client IP for abuse tracking
	clientIP := middleware.GetClientIP(r)
	ipHash := auth.HashIP(clientIP, h.cfg.OrganizerKeySalt)

	var avatarRef sql.NullString
	if req.AvatarRef != "" {
		avatarRef = sql.NullString{String: req.AvatarRef, Valid: true}
	}

	// Insert member (UNIQUE constraint will prevent duplicate names)
	_, err = h.db.Exec(`
		INSERT INTO trip_member (id, trip_id, display_name, avatar_ref, member_token, ip_hash, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, memberID, tripID, req.DisplayName, avatarRef, memberToken, ipHash, time.Now())

	if err != nil {
		// Check if it's a uniqueness violation
		if strings.Contains(err.Error(), "UNIQUE constraint failed: trip_member.trip_id, trip_member.display_name") ||
			strings.Contains(err.Error(), "trip_member_trip_id_display_name_key") {
			middleware.ErrorResponse(w, http.StatusConflict, "Display name already taken")
			return
		}
		slog.Error("failed to insert member", "error", err, "trip_id", tripID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to join trip")
		return
	}

	slog.Info("member joined", "trip_id", tripID, "member_id", memberID, "display_name", req.DisplayName)

	middleware.JSONResponse(w, http.StatusCreated, models.JoinTripResponse{
		MemberID:    memberID,
		MemberToken: memberToken,
	})
}
