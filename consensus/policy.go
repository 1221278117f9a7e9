// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import "time"

// Policy holds the numeric and behavioral knobs of the engine. It is an
// explicit parameter everywhere it is consumed; no component hardcodes a
// threshold.
type Policy struct {
	// QuorumFraction is the minimum fraction of the roster that must have
	// voted before any verdict other than AwaitingVotes can be returned.
	QuorumFraction float64

	// SplitThreshold is the roster fraction each faction must reach for
	// the ledger to count as split into camps.
	SplitThreshold float64

	// ConfirmThreshold is the favorable roster fraction required for an
	// Agreed verdict.
	ConfirmThreshold float64

	// MaxAlternatives caps how many alternative candidates are requested
	// from the activity-search collaborator when a slot splits.
	MaxAlternatives int

	// MaxResolutionRounds caps how many full re-vote rounds a resolution
	// session may burn before it escalates.
	MaxResolutionRounds int

	// AlternativeFetchTimeout bounds the alternative-fetch call. On
	// expiry the session escalates; the fetch is never retried.
	AlternativeFetchTimeout time.Duration
}

// DefaultPolicy returns the stock thresholds. The confirm threshold comes
// from product documentation rather than observed behavior and should be
// tuned server-side if it turns out to be load-bearing.
func DefaultPolicy() Policy {
	return Policy{
		QuorumFraction:          0.60,
		SplitThreshold:          0.25,
		ConfirmThreshold:        0.70,
		MaxAlternatives:         3,
		MaxResolutionRounds:     2,
		AlternativeFetchTimeout: 8 * time.Second,
	}
}
