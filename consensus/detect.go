// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

// Evaluate derives the verdict for a ledger under a policy. It is pure,
// total, and deterministic: the same ledger and policy always produce an
// identical verdict, and no two branches below overlap.
//
// Quorum is checked first so that a lone early "no" can never read as a
// veto: until enough of the roster has voted, the only possible verdict
// is AwaitingVotes. All threshold comparisons are inclusive.
func Evaluate(l *Ledger, p Policy) Verdict {
	total := len(l.members)
	if total == 0 {
		return Verdict{Kind: VerdictAwaitingVotes}
	}

	voted := 0
	favorable := 0
	opposed := 0
	for _, mv := range l.members {
		if mv.Choice == ChoiceUnset {
			continue
		}
		voted++
		if mv.Choice.Favorable() {
			favorable++
		} else if mv.Choice.Opposed() {
			opposed++
		}
	}

	if float64(voted)/float64(total) < p.QuorumFraction {
		return Verdict{Kind: VerdictAwaitingVotes}
	}

	// Fractions are over the full roster, not over those who voted, so a
	// verdict can never overstate agreement while members are silent.
	forFraction := float64(favorable) / float64(total)
	againstFraction := float64(opposed) / float64(total)

	if forFraction >= p.SplitThreshold && againstFraction >= p.SplitThreshold {
		v := Verdict{
			Kind:            VerdictSplit,
			ForFraction:     forFraction,
			AgainstFraction: againstFraction,
		}
		// Camp membership in roster order keeps the verdict reproducible
		// regardless of vote arrival order.
		for _, mv := range l.members {
			switch {
			case mv.Choice.Favorable():
				v.CampFor = append(v.CampFor, mv.MemberID)
			case mv.Choice.Opposed():
				v.CampAgainst = append(v.CampAgainst, mv.MemberID)
			}
		}
		return v
	}

	if forFraction >= p.ConfirmThreshold {
		return Verdict{
			Kind:            VerdictAgreed,
			ForFraction:     forFraction,
			AgainstFraction: againstFraction,
		}
	}

	// Quorum met but support is lukewarm and no real against camp formed.
	// The group has not produced a clear result; do not default to Agreed.
	return Verdict{
		Kind:            VerdictAwaitingVotes,
		ForFraction:     forFraction,
		AgainstFraction: againstFraction,
	}
}
