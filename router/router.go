// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/handlers"
	"github.com/danielhkuo/detour/middleware"
	"github.com/danielhkuo/detour/resolution"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, engine *resolution.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	tripHandler := handlers.NewTripHandler(db, cfg, engine)
	memberHandler := handlers.NewMemberHandler(db, cfg)
	voteHandler := handlers.NewVoteHandler(db, cfg, engine)
	resolutionHandler := handlers.NewResolutionHandler(db, cfg, engine)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Trip management (organizer operations)
	mux.HandleFunc("POST /trips", middleware.WithLogging(tripHandler.CreateTrip))
	mux.HandleFunc("GET /trips/{id}/admin", middleware.WithLogging(tripHandler.GetTripAdmin))
	mux.HandleFunc("POST /trips/{id}/publish", middleware.WithLogging(tripHandler.PublishTrip))
	mux.HandleFunc("POST /trips/{id}/slots", middleware.WithLogging(tripHandler.CreateSlot))

	// Joining (public, via invite slug)
	mux.HandleFunc("POST /trips/{slug}/join", middleware.WithLogging(memberHandler.JoinTrip))

	// Voting operations (member token)
	mux.HandleFunc("POST /subjects/{id}/votes", middleware.WithLogging(voteHandler.CastVote))
	mux.HandleFunc("GET /subjects/{id}/votes", middleware.WithLogging(voteHandler.GetVotes))
	mux.HandleFunc("GET /subjects/{id}/verdict", middleware.WithLogging(voteHandler.GetVerdict))

	// Slot detail and resolution (lock-in is organizer only)
	mux.HandleFunc("GET /slots/{id}", middleware.WithLogging(resolutionHandler.GetSlot))
	mux.HandleFunc("POST /resolutions/{id}/confirm", middleware.WithLogging(resolutionHandler.ConfirmAlternative))
	mux.HandleFunc("POST /resolutions/{id}/abandon", middleware.WithLogging(resolutionHandler.AbandonResolution))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("detour API v1"))
	})

	return mux
}
