// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package resolution

import "context"

// Candidate is an alternative activity produced by the activity-search
// collaborator. The engine treats the fit scores as opaque input; it
// never computes or ranks them.
type Candidate struct {
	ID string `json:"id"`

	// GroupFitScore is the collaborator's 0.0-1.0 estimate of group fit,
	// when it provides one.
	GroupFitScore *float64 `json:"group_fit_score,omitempty"`

	// MemberFitScores maps member id to a per-member fit estimate, when
	// the collaborator provides them.
	MemberFitScores map[string]float64 `json:"member_fit_scores,omitempty"`
}

// RosterPreferences is the group's aggregate preference payload, passed
// through to the activity-search collaborator untouched. Keys and values
// mean whatever the collaborator says they mean.
type RosterPreferences map[string]float64

// Fetcher is the activity-search collaborator boundary. Implementations
// may block on the network; the engine calls Fetch with a deadline and
// escalates on error, timeout, or an empty result.
type Fetcher interface {
	FetchAlternatives(ctx context.Context, contestedSubjectID string, prefs RosterPreferences) ([]Candidate, error)
}

// StaticFetcher serves a fixed candidate list. Used in tests and in dev
// setups without a search service.
type StaticFetcher struct {
	Candidates []Candidate
	Err        error
}

func (f *StaticFetcher) FetchAlternatives(ctx context.Context, contestedSubjectID string, prefs RosterPreferences) ([]Candidate, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	out := make([]Candidate, len(f.Candidates))
	copy(out, f.Candidates)
	return out, nil
}
