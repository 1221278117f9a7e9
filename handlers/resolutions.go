// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/detour/auth"
	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/middleware"
	"github.com/danielhkuo/detour/models"
	"github.com/danielhkuo/detour/resolution"
)

type ResolutionHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	engine *resolution.Engine
}

func NewResolutionHandler(db *sql.DB, cfg cliparse.Config, engine *resolution.Engine) *ResolutionHandler {
	return &ResolutionHandler{db: db, cfg: cfg, engine: engine}
}

// GetSlot handles GET /slots/:id
// Returns the slot row, its live verdict, and the resolution session view
// if the slot is contested.
func (h *ResolutionHandler) GetSlot(w http.ResponseWriter, r *http.Request) {
	slotID := r.PathValue("id")
	if slotID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "slot_id is required")
		return
	}

	var slot models.Slot
	err := h.db.QueryRow(`
		SELECT id, trip_id, title, description, starts_at, resolved_alternative_id, created_at
		FROM slot
		WHERE id = $1
	`, slotID).Scan(&slot.ID, &slot.TripID, &slot.Title, &slot.Description,
		&slot.StartsAt, &slot.ResolvedAlternativeID, &slot.CreatedAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Slot not found")
		return
	}
	if err != nil {
		slog.Error("failed to query slot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	verdict, err := h.engine.Verdict(slotID)
	if err != nil {
		engineErrorResponse(w, err)
		return
	}

	response := models.SlotResponse{
		Slot:    slot,
		Verdict: verdict,
	}

	if session, ok := h.engine.SessionForSubject(slotID); ok {
		view := session.View(h.engine.Policy())
		response.Resolution = &view
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// ConfirmAlternative handles POST /resolutions/:id/confirm
// Locks in an agreed alternative for the contested slot. Organizer only.
func (h *ResolutionHandler) ConfirmAlternative(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authorizedSession(w, r)
	if !ok {
		return
	}

	var req models.ConfirmAlternativeRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.AlternativeID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "alternative_id is required")
		return
	}

	if err := h.engine.ConfirmAlternative(session.ID(), req.AlternativeID); err != nil {
		engineErrorResponse(w, err)
		return
	}

	// Record the outcome on the slot row
	_, err := h.db.Exec(`
		UPDATE slot SET resolved_alternative_id = $1 WHERE id = $2
	`, req.AlternativeID, session.ContestedSubjectID())
	if err != nil {
		slog.Error("failed to record resolved alternative", "error", err,
			"slot_id", session.ContestedSubjectID())
	}

	slog.Info("resolution confirmed",
		"session_id", session.ID(),
		"slot_id", session.ContestedSubjectID(),
		"alternative_id", req.AlternativeID,
	)

	middleware.JSONResponse(w, http.StatusOK, session.View(h.engine.Policy()))
}

// AbandonResolution handles POST /resolutions/:id/abandon
// Escalates the session back to the group for manual planning.
func (h *ResolutionHandler) AbandonResolution(w http.ResponseWriter, r *http.Request) {
	session, ok := h.authorizedSession(w, r)
	if !ok {
		return
	}

	if err := h.engine.AbandonResolution(session.ID()); err != nil {
		engineErrorResponse(w, err)
		return
	}

	slog.Info("resolution abandoned",
		"session_id", session.ID(),
		"slot_id", session.ContestedSubjectID(),
	)

	middleware.JSONResponse(w, http.StatusOK, session.View(h.engine.Policy()))
}

// authorizedSession resolves the session ID in the path and checks the
// organizer key against the trip that owns the contested slot. Writes
// the error response itself on failure.
func (h *ResolutionHandler) authorizedSession(w http.ResponseWriter, r *http.Request) (*resolution.Session, bool) {
	sessionID := r.PathValue("id")
	if sessionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_id is required")
		return nil, false
	}

	session, err := h.engine.SessionByID(sessionID)
	if err != nil {
		engineErrorResponse(w, err)
		return nil, false
	}

	var tripID string
	err = h.db.QueryRow(`
		SELECT trip_id FROM slot WHERE id = $1
	`, session.ContestedSubjectID()).Scan(&tripID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Slot not found")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to query slot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, false
	}

	organizerKey := r.Header.Get("X-Organizer-Key")
	if err := auth.ValidateOrganizerKey(tripID, organizerKey, h.cfg.OrganizerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid organizer key")
		return nil, false
	}
	return session, true
}
