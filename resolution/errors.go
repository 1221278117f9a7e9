// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package resolution

import "errors"

var (
	// ErrUnknownSubject is returned when no ledger is open or archived
	// for the given subject id.
	ErrUnknownSubject = errors.New("no ledger for subject")

	// ErrUnknownSession is returned when no resolution session exists
	// with the given id.
	ErrUnknownSession = errors.New("no resolution session with that id")

	// ErrConcurrentResolution is returned on an attempt to open a second
	// resolution session for a subject that already has one. Callers must
	// use the existing session.
	ErrConcurrentResolution = errors.New("subject already has a resolution session")

	// ErrNotContested is returned when resolution is requested for a
	// subject whose verdict is not Split.
	ErrNotContested = errors.New("subject verdict is not split")

	// ErrConfirmOnUnagreed is returned when lock-in is attempted on an
	// alternative whose sub-ledger verdict is not Agreed. No state
	// changes.
	ErrConfirmOnUnagreed = errors.New("alternative has not reached agreement")

	// ErrUnknownAlternative is returned when the alternative id is not
	// part of the session.
	ErrUnknownAlternative = errors.New("no such alternative in session")

	// ErrSessionNotVoting is returned for confirm/vote attempts on a
	// session that is no longer (or not yet) collecting votes.
	ErrSessionNotVoting = errors.New("session is not in the voting state")

	// ErrSessionFinished is returned when abandoning a session that has
	// already resolved or escalated.
	ErrSessionFinished = errors.New("session already resolved or escalated")

	// ErrSlotAlreadyOpen is returned when OpenSlot is called twice for
	// the same subject id.
	ErrSlotAlreadyOpen = errors.New("slot already open for voting")

	// ErrAlternativeFetchFailed marks an activity-search failure. The
	// session recovers locally by escalating; the fetch is not retried.
	ErrAlternativeFetchFailed = errors.New("alternative fetch failed")

	// ErrAlternativeFetchTimeout marks an activity-search timeout. Hard
	// cancellation into escalation, not a retry loop.
	ErrAlternativeFetchTimeout = errors.New("alternative fetch timed out")

	// ErrNoAlternatives marks an empty activity-search result, handled
	// the same way as a fetch failure.
	ErrNoAlternatives = errors.New("no alternatives available")
)
