// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/detour/auth"
	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/middleware"
	"github.com/danielhkuo/detour/models"
	"github.com/danielhkuo/detour/resolution"
)

type TripHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	engine *resolution.Engine
}

func NewTripHandler(db *sql.DB, cfg cliparse.Config, engine *resolution.Engine) *TripHandler {
	return &TripHandler{db: db, cfg: cfg, engine: engine}
}

// CreateTrip handles POST /trips
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.OrganizerName == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "organizer_name is required")
		return
	}

	// Generate trip ID
	tripID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate trip ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	// Generate organizer key
	organizerKey := auth.GenerateOrganizerKey(tripID, h.cfg.OrganizerKeySalt)

	// Insert trip into database
	_, err = h.db.Exec(`
		INSERT INTO trip (id, name, destination, organizer_name, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, tripID, req.Name, req.Destination, req.OrganizerName, models.StatusDraft, time.Now())

	if err != nil {
		slog.Error("failed to insert trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	slog.Info("trip created", "trip_id", tripID, "organizer", req.OrganizerName)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateTripResponse{
		TripID:       tripID,
		OrganizerKey: organizerKey,
	})
}

// PublishTrip handles POST /trips/:id/publish
func (h *TripHandler) PublishTrip(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("id")
	if tripID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "trip_id is required")
		return
	}

	// Validate organizer key
	organizerKey := r.Header.Get("X-Organizer-Key")
	if err := auth.ValidateOrganizerKey(tripID, organizerKey, h.cfg.OrganizerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid organizer key")
		return
	}

	// Check trip exists and is in draft status
	var status string
	err := h.db.QueryRow("SELECT status FROM trip WHERE id = $1", tripID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		slog.Error("failed to query trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusDraft {
		middleware.ErrorResponse(w, http.StatusConflict, "Trip is not in draft status")
		return
	}

	// Generate invite slug
	inviteSlug := auth.GenerateInviteSlug(tripID, h.cfg.InviteSlugSalt)

	// Update trip to open status
	_, err = h.db.Exec(`
		UPDATE trip
		SET status = $1, invite_slug = $2
		WHERE id = $3
	`, models.StatusOpen, inviteSlug, tripID)

	if err != nil {
		slog.Error("failed to publish trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to publish trip")
		return
	}

	slog.Info("trip published", "trip_id", tripID, "invite_slug", inviteSlug)

	// Build invite URL (could be configurable)
	baseURL := "https://detour.travel" // TODO: Make this configurable
	inviteURL := baseURL + "/trips/" + inviteSlug

	middleware.JSONResponse(w, http.StatusOK, models.PublishTripResponse{
		InviteSlug: inviteSlug,
		InviteURL:  inviteURL,
	})
}

// GetTripAdmin handles GET /trips/:id/admin
// Returns trip details for organizer access using trip ID and organizer key
func (h *TripHandler) GetTripAdmin(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("id")
	if tripID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "trip_id is required")
		return
	}

	// Validate organizer key
	organizerKey := r.Header.Get("X-Organizer-Key")
	if err := auth.ValidateOrganizerKey(tripID, organizerKey, h.cfg.OrganizerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid organizer key")
		return
	}

	// Get trip by ID
	var trip models.Trip
	err := h.db.QueryRow(`
		SELECT id, name, destination, organizer_name, status, invite_slug, created_at
		FROM trip
		WHERE id = $1
	`, tripID).Scan(
		&trip.ID, &trip.Name, &trip.Destination, &trip.OrganizerName,
		&trip.Status, &trip.InviteSlug, &trip.CreatedAt,
	)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		slog.Error("failed to query trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get members
	members, err := loadMembers(h.db, trip.ID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	// Get slots
	rows, err := h.db.Query(`
		SELECT id, trip_id, title, description, starts_at, resolved_alternative_id, created_at
		FROM slot
		WHERE trip_id = $1
		ORDER BY created_at, id
	`, trip.ID)

	if err != nil {
		slog.Error("failed to query slots", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	slots := []models.Slot{}
	for rows.Next() {
		var slot models.Slot
		if err := rows.Scan(&slot.ID, &slot.TripID, &slot.Title, &slot.Description,
			&slot.StartsAt, &slot.ResolvedAlternativeID, &slot.CreatedAt); err != nil {
			slog.Error("failed to scan slot", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		slots = append(slots, slot)
	}

	response := models.TripWithDetail{
		Trip:    trip,
		Members: members,
		Slots:   slots,
	}

	middleware.JSONResponse(w, http.StatusOK, response)
}

// CreateSlot handles POST /trips/:id/slots
// Opens a new itinerary slot for voting. The roster is frozen at creation
// time; members who join later do not appear in this slot's ledger.
func (h *TripHandler) CreateSlot(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("id")
	if tripID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "trip_id is required")
		return
	}

	// Validate organizer key
	organizerKey := r.Header.Get("X-Organizer-Key")
	if err := auth.ValidateOrganizerKey(tripID, organizerKey, h.cfg.OrganizerKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid organizer key")
		return
	}

	// Parse request
	var req models.CreateSlotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}

	// Check trip exists and is open
	var status string
	err := h.db.QueryRow("SELECT status FROM trip WHERE id = $1", tripID).Scan(&status)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		slog.Error("failed to query trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if status != models.StatusOpen {
		middleware.ErrorResponse(w, http.StatusConflict, "Trip is not open")
		return
	}

	// Freeze the roster
	members, err := loadMembers(h.db, tripID)
	if err != nil {
		slog.Error("failed to query members", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if len(members) < 2 {
		middleware.ErrorResponse(w, http.StatusConflict, "Trip needs at least 2 members before voting")
		return
	}

	roster := make([]consensus.Member, 0, len(members))
	for _, m := range members {
		member := consensus.Member{ID: m.ID, DisplayName: m.DisplayName}
		if m.AvatarRef != nil {
			member.AvatarRef = *m.AvatarRef
		}
		roster = append(roster, member)
	}

	// Generate slot ID
	slotID, err := auth.GenerateID(12)
	if err != nil {
		slog.Error("failed to generate slot ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create slot")
		return
	}

	// Insert slot
	_, err = h.db.Exec(`
		INSERT INTO slot (id, trip_id, title, description, starts_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, slotID, tripID, req.Title, req.Description, req.StartsAt, time.Now())

	if err != nil {
		slog.Error("failed to insert slot", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create slot")
		return
	}

	// Open the ledger
	if err := h.engine.OpenSlot(slotID, roster, req.RosterPreferences); err != nil {
		slog.Error("failed to open slot ledger", "slot_id", slotID, "error", err)
		_, _ = h.db.Exec("DELETE FROM slot WHERE id = $1", slotID)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create slot")
		return
	}

	slog.Info("slot created", "trip_id", tripID, "slot_id", slotID, "roster_size", len(roster))

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSlotResponse{
		SlotID: slotID,
	})
}

// loadMembers returns a trip's roster in join order.
func loadMembers(db *sql.DB, tripID string) ([]models.TripMember, error) {
	rows, err := db.Query(`
		SELECT id, trip_id, display_name, avatar_ref, joined_at
		FROM trip_member
		WHERE trip_id = $1
		ORDER BY joined_at, id
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []models.TripMember{}
	for rows.Next() {
		var m models.TripMember
		if err := rows.Scan(&m.ID, &m.TripID, &m.DisplayName, &m.AvatarRef, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
