// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles schema creation and engine snapshot persistence.

# Schema

CreateSchema creates all tables if they don't exist:

  - trip: trip metadata and lifecycle state
  - trip_member: the voting roster with member tokens
  - slot: itinerary entries put to a vote
  - ledger_snapshot: vote ledger state keyed by subject id
  - session_snapshot: resolution session state, one per contested subject

The SQL works unchanged on postgres (lib/pq) and sqlite
(modernc.org/sqlite); timestamps are set from application code and
snapshot payloads are JSON text.

# Snapshot Store

Store implements the engine's persistence boundary
(resolution.SnapshotStore): SaveLedger and SaveSession are upserts with
last-write-wins semantics, and the Load methods rebuild engine state at
boot.
*/
package db
