// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/middleware"
	"github.com/danielhkuo/detour/models"
	"github.com/danielhkuo/detour/resolution"
)

type VoteHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	engine *resolution.Engine
}

func NewVoteHandler(db *sql.DB, cfg cliparse.Config, engine *resolution.Engine) *VoteHandler {
	return &VoteHandler{db: db, cfg: cfg, engine: engine}
}

// CastVote handles POST /subjects/:id/votes
// The subject may be an itinerary slot or an alternative under
// resolution; the engine routes the vote either way.
func (h *VoteHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")
	if subjectID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	memberID, ok := h.memberFromToken(w, r)
	if !ok {
		return
	}

	// Parse request
	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	verdict, err := h.engine.CastVote(subjectID, memberID, consensus.Choice(req.Choice))
	if err != nil {
		engineErrorResponse(w, err)
		return
	}

	slog.Info("vote cast", "subject_id", subjectID, "member_id", memberID, "verdict", verdict.Kind)

	middleware.JSONResponse(w, http.StatusOK, models.CastVoteResponse{
		SubjectID: subjectID,
		Verdict:   verdict,
	})
}

// GetVerdict handles GET /subjects/:id/verdict
func (h *VoteHandler) GetVerdict(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")
	if subjectID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	verdict, err := h.engine.Verdict(subjectID)
	if err != nil {
		engineErrorResponse(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VerdictResponse{
		SubjectID: subjectID,
		Verdict:   verdict,
	})
}

// GetVotes handles GET /subjects/:id/votes
// Returns per-member choices in roster order so clients can render who
// stands where. Requires a member token.
func (h *VoteHandler) GetVotes(w http.ResponseWriter, r *http.Request) {
	subjectID := r.PathValue("id")
	if subjectID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "subject_id is required")
		return
	}

	if _, ok := h.memberFromToken(w, r); !ok {
		return
	}

	votes, err := h.engine.MemberVotes(subjectID)
	if err != nil {
		engineErrorResponse(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VotesResponse{
		SubjectID: subjectID,
		Votes:     votes,
	})
}

// memberFromToken resolves the X-Member-Token header to a member ID,
// writing the error response itself when the token is missing or
// unknown.
func (h *VoteHandler) memberFromToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	memberToken := r.Header.Get("X-Member-Token")
	if memberToken == "" {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Member-Token header required")
		return "", false
	}

	var memberID string
	err := h.db.QueryRow(`
		SELECT id FROM trip_member WHERE member_token = $1
	`, memberToken).Scan(&memberID)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid member token")
		return "", false
	}
	if err != nil {
		slog.Error("failed to verify member token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return "", false
	}
	return memberID, true
}

// engineErrorResponse maps engine errors onto HTTP statuses.
func engineErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, resolution.ErrUnknownSubject),
		errors.Is(err, resolution.ErrUnknownSession),
		errors.Is(err, resolution.ErrUnknownAlternative):
		middleware.ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, consensus.ErrUnknownMember):
		middleware.ErrorResponse(w, http.StatusForbidden, "Not on this vote's roster")
	case errors.Is(err, consensus.ErrUnknownChoice):
		middleware.ErrorResponse(w, http.StatusBadRequest, "choice must be yes, maybe, or no")
	case errors.Is(err, consensus.ErrLedgerClosed):
		middleware.ErrorResponse(w, http.StatusConflict, "Voting is closed for this subject")
	case errors.Is(err, resolution.ErrNotContested),
		errors.Is(err, resolution.ErrConcurrentResolution),
		errors.Is(err, resolution.ErrConfirmOnUnagreed),
		errors.Is(err, resolution.ErrSessionNotVoting),
		errors.Is(err, resolution.ErrSessionFinished),
		errors.Is(err, resolution.ErrSlotAlreadyOpen):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
	default:
		slog.Error("engine call failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Internal error")
	}
}
