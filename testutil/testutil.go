// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/detour/auth"
	"github.com/danielhkuo/detour/cliparse"
	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/db"
)

// SetupTestDB creates a fresh sqlite database with the full schema in a
// per-test temp directory.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "detour-test.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3319,
		DatabaseType:     "sqlite",
		OrganizerKeySalt: "test-organizer-salt",
		InviteSlugSalt:   "test-slug-salt",
		Policy:           consensus.DefaultPolicy(),
	}
}

// CreateTestTrip creates a trip in the database and returns its ID,
// organizer key, and invite slug. status should be "draft" or "open";
// only open trips get a slug.
func CreateTestTrip(t *testing.T, conn *sql.DB, cfg cliparse.Config, status string) (tripID, organizerKey, inviteSlug string) {
	t.Helper()

	tripID, _ = auth.GenerateID(16)
	organizerKey = auth.GenerateOrganizerKey(tripID, cfg.OrganizerKeySalt)

	var slug *string
	if status == "open" {
		s := auth.GenerateInviteSlug(tripID, cfg.InviteSlugSalt)
		slug = &s
		inviteSlug = s
	}

	_, err := conn.Exec(`
		INSERT INTO trip (id, name, destination, organizer_name, status, invite_slug, created_at)
		VALUES ($1, 'Test Trip', 'Kyoto', 'TestOrganizer', $2, $3, $4)
	`, tripID, status, slug, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test trip: %v", err)
	}

	return tripID, organizerKey, inviteSlug
}

// AddTestMember adds a member to a trip and returns the member ID and
// token.
func AddTestMember(t *testing.T, conn *sql.DB, tripID, displayName string) (memberID, memberToken string) {
	t.Helper()

	memberID, _ = auth.GenerateID(12)
	memberToken, _ = auth.GenerateMemberToken()
	_, err := conn.Exec(`
		INSERT INTO trip_member (id, trip_id, display_name, member_token, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`, memberID, tripID, displayName, memberToken, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test member: %v", err)
	}

	return memberID, memberToken
}

// CreateTestSlot inserts a slot row for a trip and returns the slot ID.
// The caller is responsible for opening the engine ledger.
func CreateTestSlot(t *testing.T, conn *sql.DB, tripID, title string) string {
	t.Helper()

	slotID, _ := auth.GenerateID(12)
	_, err := conn.Exec(`
		INSERT INTO slot (id, trip_id, title, description, created_at)
		VALUES ($1, $2, $3, '', $4)
	`, slotID, tripID, title, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test slot: %v", err)
	}

	return slotID
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
