// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import "errors"

var (
	// ErrUnknownMember is returned when a vote is cast by an id that is
	// not on the ledger's roster. The ledger is left unchanged.
	ErrUnknownMember = errors.New("member is not on the roster")

	// ErrLedgerClosed is returned when a vote is cast after the ledger's
	// subject has been locked in or escalated. The ledger is left
	// unchanged; a late vote is rejected, never silently dropped.
	ErrLedgerClosed = errors.New("ledger is closed for voting")

	// ErrUnknownChoice is returned when a cast carries a choice outside
	// yes/maybe/no. Unset is not castable.
	ErrUnknownChoice = errors.New("choice must be yes, maybe, or no")

	// ErrEmptyRoster is returned when a ledger is opened with no members.
	ErrEmptyRoster = errors.New("roster is empty")

	// ErrDuplicateMember is returned when a roster lists the same member
	// id twice. A ledger must hold exactly one vote per member.
	ErrDuplicateMember = errors.New("duplicate member id on roster")
)
