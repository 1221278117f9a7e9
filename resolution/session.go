// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package resolution

import (
	"sync"

	"github.com/danielhkuo/detour/consensus"
)

// Status is the resolution session state. Resolved and Escalated are
// terminal.
type Status string

const (
	StatusProposing            Status = "proposing"
	StatusAwaitingAlternatives Status = "awaiting_alternatives"
	StatusVoting               Status = "voting"
	StatusResolved             Status = "resolved"
	StatusEscalated            Status = "escalated"
)

// Escalation reasons surfaced in telemetry and session views.
const (
	ReasonFetchFailed     = "fetch_failed"
	ReasonFetchTimeout    = "fetch_timeout"
	ReasonNoAlternatives  = "no_alternatives"
	ReasonRoundsExhausted = "rounds_exhausted"
	ReasonAbandoned       = "abandoned"
)

// Session is one re-voting workflow over alternatives for a contested
// subject. All state transitions for a session are serialized under its
// mutex, so overlapping transitions cannot interleave. Exactly one
// session is ever created per contested subject.
type Session struct {
	id                 string
	contestedSubjectID string
	roster             []consensus.Member

	mu              sync.Mutex
	status          Status
	alternatives    []Candidate
	subLedgers      map[string]*consensus.Ledger
	agreedSeen      map[string]bool
	round           int
	winningID       string
	escalationCause string
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ContestedSubjectID returns the slot whose split started this session.
func (s *Session) ContestedSubjectID() string { return s.contestedSubjectID }

// Status returns the current state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// terminal reports whether the session can no longer change. Callers must
// hold s.mu.
func (s *Session) terminal() bool {
	return s.status == StatusResolved || s.status == StatusEscalated
}

// openSubLedgers moves the session into voting over the given candidates:
// one fresh ledger per alternative, roster copied from the contested
// slot, every choice unset. Callers must hold s.mu.
func (s *Session) openSubLedgers(candidates []Candidate) error {
	s.alternatives = candidates
	s.subLedgers = make(map[string]*consensus.Ledger, len(candidates))
	s.agreedSeen = make(map[string]bool, len(candidates))
	for _, c := range candidates {
		ledger, err := consensus.NewLedger(c.ID, s.roster)
		if err != nil {
			return err
		}
		s.subLedgers[c.ID] = ledger
	}
	s.status = StatusVoting
	s.round = 1
	return nil
}

// firstAgreed returns the first alternative, in candidate list order,
// whose sub-ledger verdict is Agreed. Candidate order keeps the offered
// alternative reproducible when several agree in the same pass; vote
// arrival order never matters. Callers must hold s.mu.
func (s *Session) firstAgreed(policy consensus.Policy) (string, bool) {
	for _, c := range s.alternatives {
		ledger, ok := s.subLedgers[c.ID]
		if !ok {
			continue
		}
		if consensus.Evaluate(ledger, policy).Kind == consensus.VerdictAgreed {
			return c.ID, true
		}
	}
	return "", false
}

// roundFailed reports whether the current round is complete with no
// agreement: every member has voted on every sub-ledger and none reached
// Agreed. Callers must hold s.mu.
func (s *Session) roundFailed(policy consensus.Policy) bool {
	if len(s.subLedgers) == 0 {
		return false
	}
	for _, ledger := range s.subLedgers {
		for _, mv := range ledger.Members() {
			if mv.Choice == consensus.ChoiceUnset {
				return false
			}
		}
	}
	if _, ok := s.firstAgreed(policy); ok {
		return false
	}
	return true
}

// resetRound clears every sub-ledger's choices for the next re-vote.
// Callers must hold s.mu.
func (s *Session) resetRound() {
	for id, ledger := range s.subLedgers {
		s.subLedgers[id] = ledger.Reset()
	}
	s.agreedSeen = make(map[string]bool, len(s.subLedgers))
	s.round++
}

// closeAll freezes every sub-ledger. Callers must hold s.mu.
func (s *Session) closeAll() {
	for _, ledger := range s.subLedgers {
		ledger.Close()
	}
}

// SubVerdict evaluates one alternative's sub-ledger.
func (s *Session) SubVerdict(alternativeID string, policy consensus.Policy) (consensus.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ledger, ok := s.subLedgers[alternativeID]
	if !ok {
		return consensus.Verdict{}, ErrUnknownAlternative
	}
	return consensus.Evaluate(ledger, policy), nil
}

// AlternativeVerdict pairs a candidate with its current verdict.
type AlternativeVerdict struct {
	Candidate Candidate         `json:"candidate"`
	Verdict   consensus.Verdict `json:"verdict"`
}

// View is a read-only JSON-ready picture of the session for hosting
// code. Alternatives appear in candidate list order.
type View struct {
	ID                   string               `json:"id"`
	ContestedSubjectID   string               `json:"contested_subject_id"`
	Status               Status               `json:"status"`
	Round                int                  `json:"round,omitempty"`
	Alternatives         []AlternativeVerdict `json:"alternatives,omitempty"`
	OfferedAlternativeID string               `json:"offered_alternative_id,omitempty"`
	WinningAlternativeID string               `json:"winning_alternative_id,omitempty"`
	EscalationReason     string               `json:"escalation_reason,omitempty"`
}

// View snapshots the session under its lock.
func (s *Session) View(policy consensus.Policy) View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:                   s.id,
		ContestedSubjectID:   s.contestedSubjectID,
		Status:               s.status,
		Round:                s.round,
		WinningAlternativeID: s.winningID,
		EscalationReason:     s.escalationCause,
	}
	for _, c := range s.alternatives {
		ledger, ok := s.subLedgers[c.ID]
		if !ok {
			continue
		}
		v.Alternatives = append(v.Alternatives, AlternativeVerdict{
			Candidate: c,
			Verdict:   consensus.Evaluate(ledger, policy),
		})
	}
	if s.status == StatusVoting {
		if offered, ok := s.firstAgreed(policy); ok {
			v.OfferedAlternativeID = offered
		}
	}
	return v
}

// Snapshot is the persistence representation of a session, saved through
// the engine's SnapshotStore with last-write-wins semantics.
type Snapshot struct {
	ID                   string               `json:"id"`
	ContestedSubjectID   string               `json:"contested_subject_id"`
	Roster               []consensus.Member   `json:"roster"`
	Status               Status               `json:"status"`
	Alternatives         []Candidate          `json:"alternatives,omitempty"`
	SubLedgers           []consensus.Snapshot `json:"sub_ledgers,omitempty"`
	Round                int                  `json:"round,omitempty"`
	WinningAlternativeID string               `json:"winning_alternative_id,omitempty"`
	EscalationReason     string               `json:"escalation_reason,omitempty"`
}

// Snapshot captures the session under its lock. Sub-ledgers are listed in
// candidate order.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:                   s.id,
		ContestedSubjectID:   s.contestedSubjectID,
		Roster:               append([]consensus.Member(nil), s.roster...),
		Status:               s.status,
		Alternatives:         append([]Candidate(nil), s.alternatives...),
		Round:                s.round,
		WinningAlternativeID: s.winningID,
		EscalationReason:     s.escalationCause,
	}
	for _, c := range s.alternatives {
		if ledger, ok := s.subLedgers[c.ID]; ok {
			snap.SubLedgers = append(snap.SubLedgers, ledger.Snapshot())
		}
	}
	return snap
}

// sessionFromSnapshot rebuilds a session, including sub-ledgers, from its
// persisted form.
func sessionFromSnapshot(snap Snapshot) (*Session, error) {
	s := &Session{
		id:                 snap.ID,
		contestedSubjectID: snap.ContestedSubjectID,
		roster:             append([]consensus.Member(nil), snap.Roster...),
		status:             snap.Status,
		alternatives:       append([]Candidate(nil), snap.Alternatives...),
		subLedgers:         make(map[string]*consensus.Ledger, len(snap.SubLedgers)),
		agreedSeen:         make(map[string]bool, len(snap.SubLedgers)),
		round:              snap.Round,
		winningID:          snap.WinningAlternativeID,
		escalationCause:    snap.EscalationReason,
	}
	for _, ls := range snap.SubLedgers {
		ledger, err := consensus.FromSnapshot(ls)
		if err != nil {
			return nil, err
		}
		s.subLedgers[ls.SubjectID] = ledger
	}
	return s, nil
}
