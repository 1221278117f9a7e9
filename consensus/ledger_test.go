// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNewLedgerRejectsBadRosters(t *testing.T) {
	if _, err := NewLedger("slot-1", nil); !errors.Is(err, ErrEmptyRoster) {
		t.Errorf("Expected ErrEmptyRoster, got %v", err)
	}

	dup := []Member{{ID: "m1", DisplayName: "Alice"}, {ID: "m1", DisplayName: "Bob"}}
	if _, err := NewLedger("slot-1", dup); !errors.Is(err, ErrDuplicateMember) {
		t.Errorf("Expected ErrDuplicateMember, got %v", err)
	}
}

func TestCastVoteReplacesOnlyThatMember(t *testing.T) {
	ledger, err := NewLedger("slot-1", testRoster(3))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	l2, err := ledger.CastVote("m1", ChoiceNo)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	// Changing a vote is last-write-wins for that member only.
	l3, err := l2.CastVote("m1", ChoiceYes)
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if got := l3.Members()[0].Choice; got != ChoiceYes {
		t.Errorf("Expected yes after change, got %s", got)
	}
	for _, mv := range l3.Members()[1:] {
		if mv.Choice != ChoiceUnset {
			t.Errorf("Expected %s untouched, got %s", mv.MemberID, mv.Choice)
		}
	}

	// The original snapshot is unchanged: old readers stay consistent.
	if got := ledger.Members()[0].Choice; got != ChoiceUnset {
		t.Errorf("Expected original snapshot unset, got %s", got)
	}
	if got := l2.Members()[0].Choice; got != ChoiceNo {
		t.Errorf("Expected intermediate snapshot no, got %s", got)
	}
}

func TestCastVoteErrors(t *testing.T) {
	ledger, err := NewLedger("slot-1", testRoster(2))
	if err != nil {
		t.Fatalf("NewLedger failed: %v", err)
	}

	if _, err := ledger.CastVote("stranger", ChoiceYes); !errors.Is(err, ErrUnknownMember) {
		t.Errorf("Expected ErrUnknownMember, got %v", err)
	}
	if _, err := ledger.CastVote("m1", Choice("veto")); !errors.Is(err, ErrUnknownChoice) {
		t.Errorf("Expected ErrUnknownChoice, got %v", err)
	}
	if _, err := ledger.CastVote("m1", ChoiceUnset); !errors.Is(err, ErrUnknownChoice) {
		t.Errorf("Expected ErrUnknownChoice for unset, got %v", err)
	}

	ledger.Close()
	if _, err := ledger.CastVote("m1", ChoiceYes); !errors.Is(err, ErrLedgerClosed) {
		t.Errorf("Expected ErrLedgerClosed, got %v", err)
	}
}

func TestResetClearsChoicesKeepsRoster(t *testing.T) {
	ledger := ledgerWith(t, 3, ChoiceYes, ChoiceNo, ChoiceMaybe)
	fresh := ledger.Reset()

	if fresh.SubjectID() != ledger.SubjectID() {
		t.Errorf("Expected subject %s, got %s", ledger.SubjectID(), fresh.SubjectID())
	}
	if !reflect.DeepEqual(fresh.Roster(), ledger.Roster()) {
		t.Errorf("Roster changed across reset")
	}
	for _, mv := range fresh.Members() {
		if mv.Choice != ChoiceUnset {
			t.Errorf("Expected %s reset to unset, got %s", mv.MemberID, mv.Choice)
		}
	}
}

func TestSnapshotRoundTripPreservesVerdict(t *testing.T) {
	policy := DefaultPolicy()

	ledgers := []*Ledger{
		ledgerWith(t, 4, ChoiceYes, ChoiceYes, ChoiceYes, ChoiceNo),
		ledgerWith(t, 5, ChoiceYes, ChoiceMaybe, ChoiceNo),
		ledgerWith(t, 2),
	}

	for i, ledger := range ledgers {
		// Through the persistence representation: struct -> JSON -> struct.
		raw, err := json.Marshal(ledger.Snapshot())
		if err != nil {
			t.Fatalf("ledger %d: marshal failed: %v", i, err)
		}
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			t.Fatalf("ledger %d: unmarshal failed: %v", i, err)
		}
		restored, err := FromSnapshot(snap)
		if err != nil {
			t.Fatalf("ledger %d: FromSnapshot failed: %v", i, err)
		}

		want := Evaluate(ledger, policy)
		got := Evaluate(restored, policy)
		if !reflect.DeepEqual(want, got) {
			t.Errorf("ledger %d: verdict changed across round-trip: %+v vs %+v", i, want, got)
		}
	}
}

func TestSnapshotCarriesClosedState(t *testing.T) {
	ledger := ledgerWith(t, 2, ChoiceYes, ChoiceYes)
	ledger.Close()

	restored, err := FromSnapshot(ledger.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	if !restored.Closed() {
		t.Fatal("Expected restored ledger to be closed")
	}
	if _, err := restored.CastVote("m1", ChoiceNo); !errors.Is(err, ErrLedgerClosed) {
		t.Errorf("Expected ErrLedgerClosed on restored ledger, got %v", err)
	}
}
