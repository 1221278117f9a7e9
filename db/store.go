// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/resolution"
)

// Store persists engine snapshots. It implements
// resolution.SnapshotStore: plain get/put keyed by subject id with
// last-write-wins semantics, no transactional guarantees beyond that.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SaveLedger upserts a slot ledger snapshot.
func (s *Store) SaveLedger(ctx context.Context, snap consensus.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode ledger snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO ledger_snapshot (subject_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (subject_id) DO UPDATE SET payload = $2, updated_at = $3
	`, snap.SubjectID, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save ledger snapshot: %w", err)
	}
	return nil
}

// SaveSession upserts a resolution session snapshot, sub-ledgers
// included.
func (s *Store) SaveSession(ctx context.Context, snap resolution.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode session snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_snapshot (id, contested_subject_id, payload, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET payload = $3, updated_at = $4
	`, snap.ID, snap.ContestedSubjectID, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save session snapshot: %w", err)
	}
	return nil
}

// LoadLedger fetches one ledger snapshot by subject id.
func (s *Store) LoadLedger(ctx context.Context, subjectID string) (consensus.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM ledger_snapshot WHERE subject_id = $1
	`, subjectID).Scan(&payload)
	if err != nil {
		return consensus.Snapshot{}, fmt.Errorf("failed to load ledger snapshot: %w", err)
	}

	var snap consensus.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return consensus.Snapshot{}, fmt.Errorf("failed to decode ledger snapshot: %w", err)
	}
	return snap, nil
}

// LoadLedgers fetches every persisted ledger snapshot, for engine
// hydration at boot.
func (s *Store) LoadLedgers(ctx context.Context) ([]consensus.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM ledger_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []consensus.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap consensus.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode ledger snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// LoadSessions fetches every persisted session snapshot.
func (s *Store) LoadSessions(ctx context.Context) ([]resolution.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM session_snapshot`)
	if err != nil {
		return nil, fmt.Errorf("failed to load session snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []resolution.Snapshot
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var snap resolution.Snapshot
		if err := json.Unmarshal([]byte(payload), &snap); err != nil {
			return nil, fmt.Errorf("failed to decode session snapshot: %w", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}
