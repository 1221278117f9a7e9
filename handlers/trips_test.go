// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/detour/auth"
	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/models"
	"github.com/danielhkuo/detour/resolution"
	"github.com/danielhkuo/detour/testutil"
)

// newTestEngine builds an engine whose fetch returns the given
// candidates synchronously.
func newTestEngine(candidates ...resolution.Candidate) *resolution.Engine {
	return resolution.NewEngine(
		consensus.DefaultPolicy(),
		&resolution.StaticFetcher{Candidates: candidates},
		nil, nil,
	)
}

// waitForSessionStatus polls until the session for a subject reaches
// the wanted status. The alternative fetch is asynchronous, so tests
// that depend on it have to wait it out.
func waitForSessionStatus(t *testing.T, engine *resolution.Engine, subjectID string, want resolution.Status) *resolution.Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if session, ok := engine.SessionForSubject(subjectID); ok && session.Status() == want {
			return session
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session for %s never reached status %s", subjectID, want)
	return nil
}

func TestCreateTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(db, cfg, newTestEngine())

	tests := []struct {
		name           string
		requestBody    interface{}
		expectedStatus int
		checkResponse  func(t *testing.T, resp *models.CreateTripResponse)
	}{
		{
			name: "valid trip creation",
			requestBody: models.CreateTripRequest{
				Name:          "Spring Trip",
				Destination:   "Kyoto",
				OrganizerName: "Alice",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, resp *models.CreateTripResponse) {
				if resp.TripID == "" {
					t.Error("Expected non-empty trip_id")
				}
				if resp.OrganizerKey == "" {
					t.Error("Expected non-empty organizer_key")
				}

				// Verify organizer key is valid
				expectedKey := auth.GenerateOrganizerKey(resp.TripID, cfg.OrganizerKeySalt)
				if resp.OrganizerKey != expectedKey {
					t.Error("Organizer key does not match expected value")
				}

				// Verify trip was created in database
				var status string
				err := db.QueryRow("SELECT status FROM trip WHERE id = $1", resp.TripID).Scan(&status)
				if err != nil {
					t.Fatalf("Failed to query trip: %v", err)
				}
				if status != models.StatusDraft {
					t.Errorf("Expected status 'draft', got '%s'", status)
				}
			},
		},
		{
			name: "missing name",
			requestBody: models.CreateTripRequest{
				Destination:   "Kyoto",
				OrganizerName: "Alice",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing organizer name",
			requestBody: models.CreateTripRequest{
				Name:        "Spring Trip",
				Destination: "Kyoto",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if str, ok := tt.requestBody.(string); ok {
				req = httptest.NewRequest("POST", "/trips", strings.NewReader(str))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = testutil.MakeRequest("POST", "/trips", tt.requestBody, nil)
			}
			w := httptest.NewRecorder()

			handler.CreateTrip(w, req)

			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated && tt.checkResponse != nil {
				var resp models.CreateTripResponse
				testutil.AssertJSON(t, w, &resp)
				tt.checkResponse(t, &resp)
			}
		})
	}
}

func TestPublishTrip(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(db, cfg, newTestEngine())

	tripID, organizerKey, _ := testutil.CreateTestTrip(t, db, cfg, "draft")

	t.Run("invalid organizer key", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/publish", nil,
			map[string]string{"X-Organizer-Key": "wrong"})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.PublishTrip(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("valid publish", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/publish", nil,
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.PublishTrip(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.PublishTripResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.InviteSlug == "" {
			t.Error("Expected non-empty invite_slug")
		}

		var status string
		var slug string
		err := db.QueryRow("SELECT status, invite_slug FROM trip WHERE id = $1", tripID).Scan(&status, &slug)
		if err != nil {
			t.Fatalf("Failed to query trip: %v", err)
		}
		if status != models.StatusOpen {
			t.Errorf("Expected status 'open', got '%s'", status)
		}
		if slug != resp.InviteSlug {
			t.Errorf("Stored slug %s does not match response %s", slug, resp.InviteSlug)
		}
	})

	t.Run("publish twice", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/publish", nil,
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.PublishTrip(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}

func TestCreateSlot(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	engine := newTestEngine()
	handler := NewTripHandler(db, cfg, engine)

	tripID, organizerKey, _ := testutil.CreateTestTrip(t, db, cfg, "open")

	t.Run("too few members", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/slots",
			models.CreateSlotRequest{Title: "Day 1 morning"},
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.CreateSlot(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	aliceID, _ := testutil.AddTestMember(t, db, tripID, "Alice")
	bobID, _ := testutil.AddTestMember(t, db, tripID, "Bob")

	t.Run("valid slot creation", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/slots",
			models.CreateSlotRequest{Title: "Day 1 morning", Description: "Temples"},
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.CreateSlot(w, req)
		testutil.AssertStatus(t, w, http.StatusCreated)

		var resp models.CreateSlotResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.SlotID == "" {
			t.Fatal("Expected non-empty slot_id")
		}

		// The engine ledger should track the frozen roster
		votes, err := engine.MemberVotes(resp.SlotID)
		if err != nil {
			t.Fatalf("Engine does not know the new slot: %v", err)
		}
		if len(votes) != 2 {
			t.Fatalf("Expected roster of 2, got %d", len(votes))
		}
		if votes[0].MemberID != aliceID || votes[1].MemberID != bobID {
			t.Errorf("Roster not in join order: %s, %s", votes[0].MemberID, votes[1].MemberID)
		}
	})

	t.Run("missing title", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/trips/"+tripID+"/slots",
			models.CreateSlotRequest{},
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.CreateSlot(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestGetTripAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)

	cfg := testutil.GetTestConfig()
	handler := NewTripHandler(db, cfg, newTestEngine())

	tripID, organizerKey, _ := testutil.CreateTestTrip(t, db, cfg, "open")
	testutil.AddTestMember(t, db, tripID, "Alice")
	testutil.AddTestMember(t, db, tripID, "Bob")
	slotID := testutil.CreateTestSlot(t, db, tripID, "Day 1 morning")

	t.Run("valid admin view", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/trips/"+tripID+"/admin", nil,
			map[string]string{"X-Organizer-Key": organizerKey})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.GetTripAdmin(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.TripWithDetail
		testutil.AssertJSON(t, w, &resp)
		if resp.Trip.ID != tripID {
			t.Errorf("Expected trip %s, got %s", tripID, resp.Trip.ID)
		}
		if len(resp.Members) != 2 {
			t.Errorf("Expected 2 members, got %d", len(resp.Members))
		}
		if len(resp.Slots) != 1 || resp.Slots[0].ID != slotID {
			t.Errorf("Expected slot %s in response", slotID)
		}
		for _, m := range resp.Members {
			if m.MemberToken != "" {
				t.Error("Member token must never appear in responses")
			}
		}
	})

	t.Run("invalid organizer key", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/trips/"+tripID+"/admin", nil,
			map[string]string{"X-Organizer-Key": "wrong"})
		req.SetPathValue("id", tripID)
		w := httptest.NewRecorder()

		handler.GetTripAdmin(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}
