// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Timestamps are set from application code so the schema works unchanged
// on both postgres and sqlite.
const schema = `
-- Trips
CREATE TABLE IF NOT EXISTS trip (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    destination TEXT,
    organizer_name TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'draft' CHECK (status IN ('draft', 'open')),
    invite_slug TEXT UNIQUE,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trip_invite_slug ON trip(invite_slug);
CREATE INDEX IF NOT EXISTS idx_trip_status ON trip(status);

-- Trip members (the voting roster)
CREATE TABLE IF NOT EXISTS trip_member (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    display_name TEXT NOT NULL,
    avatar_ref TEXT,
    member_token TEXT NOT NULL UNIQUE,
    ip_hash TEXT,
    joined_at TIMESTAMP NOT NULL,
    UNIQUE (trip_id, display_name)
);

CREATE INDEX IF NOT EXISTS idx_trip_member_trip_id ON trip_member(trip_id);
CREATE INDEX IF NOT EXISTS idx_trip_member_token ON trip_member(member_token);

-- Itinerary slots put to a vote
CREATE TABLE IF NOT EXISTS slot (
    id TEXT PRIMARY KEY,
    trip_id TEXT NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT,
    starts_at TIMESTAMP,
    resolved_alternative_id TEXT,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_slot_trip_id ON slot(trip_id);

-- Vote ledger snapshots, keyed by subject. Last write wins.
CREATE TABLE IF NOT EXISTS ledger_snapshot (
    subject_id TEXT PRIMARY KEY,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Resolution session snapshots. One session ever per contested subject.
CREATE TABLE IF NOT EXISTS session_snapshot (
    id TEXT PRIMARY KEY,
    contested_subject_id TEXT NOT NULL UNIQUE,
    payload TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`
