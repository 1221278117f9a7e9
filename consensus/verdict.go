// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

// VerdictKind discriminates the verdict variants. Every consumer switch
// should handle all three; there is no fourth outcome.
type VerdictKind string

const (
	// VerdictAwaitingVotes means the group has not yet produced a clear
	// result: quorum unmet, or quorum met but support lukewarm with no
	// real opposing camp.
	VerdictAwaitingVotes VerdictKind = "awaiting_votes"

	// VerdictAgreed means the favorable fraction reached the confirm
	// threshold without a qualifying opposing camp.
	VerdictAgreed VerdictKind = "agreed"

	// VerdictSplit means both factions reached the split threshold.
	VerdictSplit VerdictKind = "split"
)

// Verdict is the derived outcome of evaluating a ledger. The camp fields
// are populated only when Kind is VerdictSplit; fractions are always
// computed against the full roster.
type Verdict struct {
	Kind            VerdictKind `json:"kind"`
	ForFraction     float64     `json:"for_fraction"`
	AgainstFraction float64     `json:"against_fraction"`
	CampFor         []string    `json:"camp_for,omitempty"`
	CampAgainst     []string    `json:"camp_against,omitempty"`
}

// Side labels which faction a camp represents.
type Side string

const (
	SideFor     Side = "for"
	SideAgainst Side = "against"
)

// Camp is a read-only view of one faction: the members aligned on a side
// and that side's roster fraction. Recomputed on every call, never stored.
type Camp struct {
	Side     Side         `json:"side"`
	Members  []MemberVote `json:"members"`
	Fraction float64      `json:"fraction"`
}

// Camps materializes the two factions of a split verdict against the
// given ledger, in roster order. Returns nil for non-split verdicts.
func (v Verdict) Camps(l *Ledger) []Camp {
	if v.Kind != VerdictSplit {
		return nil
	}

	campFor := Camp{Side: SideFor, Fraction: v.ForFraction}
	campAgainst := Camp{Side: SideAgainst, Fraction: v.AgainstFraction}
	for _, mv := range l.members {
		switch {
		case mv.Choice.Favorable():
			campFor.Members = append(campFor.Members, mv)
		case mv.Choice.Opposed():
			campAgainst.Members = append(campAgainst.Members, mv)
		}
	}
	return []Camp{campFor, campAgainst}
}
