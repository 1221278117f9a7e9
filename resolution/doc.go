// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package resolution drives the contested-slot workflow: when a slot's
verdict becomes Split, the Engine requests alternative activities from
the search collaborator, opens one sub-ledger per alternative over the
same roster, and re-evaluates every sub-ledger on every vote until an
alternative is locked in or the conflict escalates.

# State Machine

Each contested subject gets exactly one Session:

	proposing -> awaiting_alternatives -> voting -> resolved
	                      |                  |
	                      +----> escalated <-+

Escalation happens on fetch failure or timeout, on an empty alternative
list, when the configured number of re-vote rounds is exhausted, or on
explicit abandonment by the organizer. Resolved and escalated are
terminal.

Lock-in is explicit: the first sub-ledger to reach Agreed (in candidate
list order, when several agree at once) is offered, and the organizer
must call ConfirmAlternative. Confirming closes all sibling sub-ledgers;
late votes fail with consensus.ErrLedgerClosed.

# Concurrency

Vote casting is synchronous and never waits on the alternative fetch.
The fetch is a background task bounded by the policy timeout that posts
one transition back into its session; all transitions for a session are
applied under the session's own lock, one at a time.
*/
package resolution
