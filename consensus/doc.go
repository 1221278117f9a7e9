// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package consensus implements the pure decision core of the engine: vote
ledgers, the consensus policy, and camp detection.

Nothing in this package performs I/O. A Ledger holds one vote per roster
member for a single votable subject (an itinerary slot or an alternative
activity), and Evaluate derives a Verdict from the ledger and a Policy.
The verdict is never stored independently of its inputs: evaluating the same
ledger twice always yields an identical result.

# Verdict Rules

Given a roster of N members:

 1. If fewer than Policy.QuorumFraction of the roster has voted, the
    verdict is AwaitingVotes — even if the votes so far look decisive.
 2. Fractions are computed against the full roster, never against only
    those who voted, so silence can never be mistaken for agreement.
 3. If both the favorable (yes/maybe) and opposed (no) fractions reach
    Policy.SplitThreshold, the group is Split into two camps.
 4. Otherwise the verdict is Agreed when the favorable fraction reaches
    Policy.ConfirmThreshold, and AwaitingVotes when support is lukewarm.

All threshold comparisons are inclusive (>=): a camp exactly at a
threshold counts as a camp.

# Concurrency

CastVote returns a new ledger snapshot rather than mutating in place, so
readers holding an older snapshot always see a consistent view. Evaluate
is a pure read and is safe to call concurrently from any number of
goroutines.
*/
package consensus
