// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package resolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/danielhkuo/detour/consensus"
	"github.com/danielhkuo/detour/signals"
)

// SnapshotStore is the persistence collaborator boundary: get/put of
// ledger and session snapshots keyed by subject id, last-write-wins. The
// engine only writes through it; loading happens at boot via the Restore
// methods.
type SnapshotStore interface {
	SaveLedger(ctx context.Context, snap consensus.Snapshot) error
	SaveSession(ctx context.Context, snap Snapshot) error
}

// Engine owns the slot ledgers and resolution sessions for a group and
// drives the whole workflow: vote routing, camp detection on every cast,
// starting resolution on a split, and lock-in or escalation.
//
// Vote casting is synchronous and never blocks on the alternative fetch;
// the fetch runs as a background task that posts a single transition back
// into its session. Transitions for one session are serialized.
type Engine struct {
	policy  consensus.Policy
	fetcher Fetcher
	emitter signals.Emitter
	store   SnapshotStore

	mu            sync.Mutex
	slots         map[string]*slotState
	slotPrefs     map[string]RosterPreferences
	altOwner      map[string]*Session
	sessions      map[string]*Session
	sessionBySlot map[string]*Session
}

type slotState struct {
	ledger *consensus.Ledger
}

// NewEngine wires the engine. emitter and store may be nil; a nil emitter
// drops events and a nil store skips persistence.
func NewEngine(policy consensus.Policy, fetcher Fetcher, emitter signals.Emitter, store SnapshotStore) *Engine {
	return &Engine{
		policy:        policy,
		fetcher:       fetcher,
		emitter:       emitter,
		store:         store,
		slots:         make(map[string]*slotState),
		slotPrefs:     make(map[string]RosterPreferences),
		altOwner:      make(map[string]*Session),
		sessions:      make(map[string]*Session),
		sessionBySlot: make(map[string]*Session),
	}
}

// Policy returns the engine's consensus policy.
func (e *Engine) Policy() consensus.Policy {
	return e.policy
}

// OpenSlot opens voting on an itinerary slot. The roster is frozen for
// the lifetime of the ledger and any session it spawns; membership
// changes must close and reopen the slot. prefs is the opaque preference
// payload forwarded to the activity-search collaborator if the slot
// splits.
func (e *Engine) OpenSlot(subjectID string, roster []consensus.Member, prefs RosterPreferences) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.slots[subjectID]; exists {
		return ErrSlotAlreadyOpen
	}
	ledger, err := consensus.NewLedger(subjectID, roster)
	if err != nil {
		return err
	}
	e.slots[subjectID] = &slotState{ledger: ledger}
	e.slotPrefs[subjectID] = prefs
	e.saveLedger(ledger.Snapshot())
	return nil
}

// CastVote records a member's choice for a subject, which may be a slot
// or an alternative under resolution, and returns the fresh verdict. A
// verdict is derived anew on every cast; nothing is cached. A slot vote
// that flips the verdict to Split starts the resolution workflow for that
// slot exactly once.
func (e *Engine) CastVote(subjectID, memberID string, choice consensus.Choice) (consensus.Verdict, error) {
	e.mu.Lock()
	if slot, ok := e.slots[subjectID]; ok {
		verdict, session, err := e.castSlotVoteLocked(slot, subjectID, memberID, choice)
		prefs := e.slotPrefs[subjectID]
		e.mu.Unlock()
		if session != nil {
			go e.runFetch(session, subjectID, prefs)
		}
		return verdict, err
	}
	session, ok := e.altOwner[subjectID]
	e.mu.Unlock()

	if !ok {
		return consensus.Verdict{}, ErrUnknownSubject
	}
	return e.castAlternativeVote(session, subjectID, memberID, choice)
}

// castSlotVoteLocked handles a vote on a slot ledger. Callers hold e.mu.
// The returned session, if non-nil, was just created and needs its fetch
// started once the lock is released.
func (e *Engine) castSlotVoteLocked(slot *slotState, subjectID, memberID string, choice consensus.Choice) (consensus.Verdict, *Session, error) {
	ledger, err := slot.ledger.CastVote(memberID, choice)
	if err != nil {
		return consensus.Verdict{}, nil, err
	}
	slot.ledger = ledger

	verdict := consensus.Evaluate(ledger, e.policy)
	e.emit(signals.Event{
		Kind:      signals.KindVoteCast,
		SubjectID: subjectID,
		Detail: map[string]string{
			"member_id": memberID,
			"choice":    string(choice),
			"verdict":   string(verdict.Kind),
		},
	})

	var session *Session
	if verdict.Kind == consensus.VerdictSplit {
		if _, contested := e.sessionBySlot[subjectID]; !contested {
			session = e.startResolutionLocked(slot, subjectID, verdict)
		}
	}
	e.saveLedger(ledger.Snapshot())
	return verdict, session, nil
}

// startResolutionLocked closes the contested slot and creates its
// session in the proposing state. Callers hold e.mu and have already
// checked that no session exists for the subject.
func (e *Engine) startResolutionLocked(slot *slotState, subjectID string, verdict consensus.Verdict) *Session {
	slot.ledger.Close()

	session := &Session{
		id:                 uuid.NewString(),
		contestedSubjectID: subjectID,
		roster:             slot.ledger.Roster(),
		status:             StatusProposing,
	}
	e.sessions[session.id] = session
	e.sessionBySlot[subjectID] = session

	e.emit(signals.Event{
		Kind:      signals.KindCampDetected,
		SubjectID: subjectID,
		Detail: map[string]string{
			"for_fraction":     strconv.FormatFloat(verdict.ForFraction, 'f', -1, 64),
			"against_fraction": strconv.FormatFloat(verdict.AgainstFraction, 'f', -1, 64),
			"camp_for":         strconv.Itoa(len(verdict.CampFor)),
			"camp_against":     strconv.Itoa(len(verdict.CampAgainst)),
		},
	})
	e.emit(signals.Event{
		Kind:      signals.KindResolutionStarted,
		SubjectID: subjectID,
		SessionID: session.id,
	})
	e.saveLedger(slot.ledger.Snapshot())
	return session
}

// StartResolution opens a resolution session for an already-split slot.
// The engine normally does this itself on the vote that causes the split;
// the exported form exists for hosts that rebuild state from snapshots.
func (e *Engine) StartResolution(subjectID string) (*Session, error) {
	e.mu.Lock()
	slot, ok := e.slots[subjectID]
	if !ok {
		e.mu.Unlock()
		return nil, ErrUnknownSubject
	}
	if _, contested := e.sessionBySlot[subjectID]; contested {
		e.mu.Unlock()
		return nil, ErrConcurrentResolution
	}
	verdict := consensus.Evaluate(slot.ledger, e.policy)
	if verdict.Kind != consensus.VerdictSplit {
		e.mu.Unlock()
		return nil, ErrNotContested
	}
	session := e.startResolutionLocked(slot, subjectID, verdict)
	prefs := e.slotPrefs[subjectID]
	e.mu.Unlock()

	go e.runFetch(session, subjectID, prefs)
	return session, nil
}

// runFetch is the asynchronous alternative-fetch task: one call against
// the activity-search collaborator under the policy timeout, then a
// single transition posted back into the session. Failure, timeout, and
// an empty result all escalate; there is no retry.
func (e *Engine) runFetch(s *Session, subjectID string, prefs RosterPreferences) {
	s.mu.Lock()
	if s.status != StatusProposing {
		s.mu.Unlock()
		return
	}
	s.status = StatusAwaitingAlternatives
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), e.policy.AlternativeFetchTimeout)
	defer cancel()
	candidates, err := e.fetcher.FetchAlternatives(ctx, subjectID, prefs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal() {
		// Abandoned while the fetch was in flight.
		return
	}

	if ferr := classifyFetch(err, len(candidates)); ferr != nil {
		slog.Warn("alternative fetch escalated", "subject_id", subjectID, "error", ferr)
		e.escalateLocked(s, fetchReason(ferr))
	} else {
		if len(candidates) > e.policy.MaxAlternatives {
			candidates = candidates[:e.policy.MaxAlternatives]
		}
		if err := s.openSubLedgers(candidates); err != nil {
			slog.Error("failed to open sub-ledgers", "subject_id", subjectID, "error", err)
			e.escalateLocked(s, ReasonFetchFailed)
			e.saveSession(s.snapshotLocked())
			return
		}
		e.mu.Lock()
		for _, c := range candidates {
			e.altOwner[c.ID] = s
		}
		e.mu.Unlock()
		slog.Info("resolution voting opened",
			"session_id", s.id,
			"subject_id", subjectID,
			"alternatives", len(candidates),
		)
	}
	e.saveSession(s.snapshotLocked())
}

// classifyFetch folds a fetch outcome into one of the fetch error
// sentinels, or nil when usable candidates came back.
func classifyFetch(err error, got int) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrAlternativeFetchTimeout, err)
	case err != nil:
		return fmt.Errorf("%w: %v", ErrAlternativeFetchFailed, err)
	case got == 0:
		return ErrNoAlternatives
	}
	return nil
}

// fetchReason maps a classified fetch error onto its escalation reason.
func fetchReason(err error) string {
	switch {
	case errors.Is(err, ErrAlternativeFetchTimeout):
		return ReasonFetchTimeout
	case errors.Is(err, ErrNoAlternatives):
		return ReasonNoAlternatives
	default:
		return ReasonFetchFailed
	}
}

// castAlternativeVote handles a vote on a sub-ledger, re-evaluates it,
// and runs the round bookkeeping.
func (e *Engine) castAlternativeVote(s *Session, alternativeID, memberID string, choice consensus.Choice) (consensus.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ledger, ok := s.subLedgers[alternativeID]
	if !ok {
		return consensus.Verdict{}, ErrUnknownAlternative
	}
	next, err := ledger.CastVote(memberID, choice)
	if err != nil {
		return consensus.Verdict{}, err
	}
	s.subLedgers[alternativeID] = next

	verdict := consensus.Evaluate(next, e.policy)
	e.emit(signals.Event{
		Kind:      signals.KindVoteCast,
		SubjectID: alternativeID,
		SessionID: s.id,
		Detail: map[string]string{
			"member_id": memberID,
			"choice":    string(choice),
			"verdict":   string(verdict.Kind),
		},
	})

	if verdict.Kind == consensus.VerdictAgreed && !s.agreedSeen[alternativeID] {
		s.agreedSeen[alternativeID] = true
		e.emit(signals.Event{
			Kind:      signals.KindAlternativeAgreed,
			SubjectID: alternativeID,
			SessionID: s.id,
		})
	}

	if s.roundFailed(e.policy) {
		if s.round >= e.policy.MaxResolutionRounds {
			e.escalateLocked(s, ReasonRoundsExhausted)
		} else {
			s.resetRound()
			slog.Info("resolution round failed, re-voting",
				"session_id", s.id,
				"round", humanize.Ordinal(s.round),
			)
		}
	}

	e.saveSession(s.snapshotLocked())
	return verdict, nil
}

// Verdict evaluates the current ledger for any known subject, slot or
// alternative, open or closed.
func (e *Engine) Verdict(subjectID string) (consensus.Verdict, error) {
	e.mu.Lock()
	if slot, ok := e.slots[subjectID]; ok {
		ledger := slot.ledger
		e.mu.Unlock()
		return consensus.Evaluate(ledger, e.policy), nil
	}
	session, ok := e.altOwner[subjectID]
	e.mu.Unlock()

	if !ok {
		return consensus.Verdict{}, ErrUnknownSubject
	}
	return session.SubVerdict(subjectID, e.policy)
}

// MemberVotes returns the current per-member votes for any known
// subject, in roster order.
func (e *Engine) MemberVotes(subjectID string) ([]consensus.MemberVote, error) {
	e.mu.Lock()
	if slot, ok := e.slots[subjectID]; ok {
		ledger := slot.ledger
		e.mu.Unlock()
		return ledger.Members(), nil
	}
	session, ok := e.altOwner[subjectID]
	e.mu.Unlock()

	if !ok {
		return nil, ErrUnknownSubject
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	ledger, ok := session.subLedgers[subjectID]
	if !ok {
		return nil, ErrUnknownSubject
	}
	return ledger.Members(), nil
}

// SessionByID looks up a session, terminal or not.
func (e *Engine) SessionByID(sessionID string) (*Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessions[sessionID]
	if !ok {
		return nil, ErrUnknownSession
	}
	return session, nil
}

// SessionForSubject returns the session spawned by a contested slot, if
// any.
func (e *Engine) SessionForSubject(subjectID string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, ok := e.sessionBySlot[subjectID]
	return session, ok
}

// ConfirmAlternative locks in an alternative. Lock-in is an explicit
// organizer action, never automatic: several alternatives may be Agreed
// at once and only one may be chosen. Confirming closes every sibling
// sub-ledger and the session itself; late votes anywhere in the session
// fail with ErrLedgerClosed.
func (e *Engine) ConfirmAlternative(sessionID, alternativeID string) error {
	session, err := e.SessionByID(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.status != StatusVoting {
		return ErrSessionNotVoting
	}
	ledger, ok := session.subLedgers[alternativeID]
	if !ok {
		return ErrUnknownAlternative
	}
	if consensus.Evaluate(ledger, e.policy).Kind != consensus.VerdictAgreed {
		return ErrConfirmOnUnagreed
	}

	session.winningID = alternativeID
	session.status = StatusResolved
	session.closeAll()

	e.emit(signals.Event{
		Kind:      signals.KindResolutionConfirmed,
		SubjectID: session.contestedSubjectID,
		SessionID: session.id,
		Detail:    map[string]string{"winning_alternative_id": alternativeID},
	})
	e.saveSession(session.snapshotLocked())
	return nil
}

// AbandonResolution escalates a session on explicit organizer request.
func (e *Engine) AbandonResolution(sessionID string) error {
	session, err := e.SessionByID(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.terminal() {
		return ErrSessionFinished
	}
	e.escalateLocked(session, ReasonAbandoned)
	e.saveSession(session.snapshotLocked())
	return nil
}

// escalateLocked is the one way into the terminal Escalated state: close
// everything, record the reason, tell the outside world. Callers hold the
// session mutex.
func (e *Engine) escalateLocked(s *Session, reason string) {
	s.status = StatusEscalated
	s.escalationCause = reason
	s.closeAll()
	e.emit(signals.Event{
		Kind:      signals.KindResolutionEscalated,
		SubjectID: s.contestedSubjectID,
		SessionID: s.id,
		Detail:    map[string]string{"reason": reason},
	})
}

// RestoreSlot rebuilds a slot ledger from its snapshot at boot. Roster
// preferences are not part of the snapshot, so hosts that do not persist
// them elsewhere pass nil; a restored slot that later splits then
// fetches alternatives without preference hints.
func (e *Engine) RestoreSlot(snap consensus.Snapshot, prefs RosterPreferences) error {
	ledger, err := consensus.FromSnapshot(snap)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.slots[snap.SubjectID]; exists {
		return ErrSlotAlreadyOpen
	}
	e.slots[snap.SubjectID] = &slotState{ledger: ledger}
	e.slotPrefs[snap.SubjectID] = prefs
	return nil
}

// RestoreSession rebuilds a session and its sub-ledger routing from a
// snapshot at boot. A session restored mid-fetch (proposing or awaiting)
// has lost its in-flight task and escalates, matching the no-limbo rule.
func (e *Engine) RestoreSession(snap Snapshot) error {
	session, err := sessionFromSnapshot(snap)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if _, exists := e.sessionBySlot[session.contestedSubjectID]; exists {
		e.mu.Unlock()
		return ErrConcurrentResolution
	}
	e.sessions[session.id] = session
	e.sessionBySlot[session.contestedSubjectID] = session
	for _, c := range session.alternatives {
		e.altOwner[c.ID] = session
	}
	e.mu.Unlock()

	session.mu.Lock()
	defer session.mu.Unlock()
	if session.status == StatusProposing || session.status == StatusAwaitingAlternatives {
		e.escalateLocked(session, ReasonFetchFailed)
		e.saveSession(session.snapshotLocked())
	}
	return nil
}

func (e *Engine) emit(ev signals.Event) {
	if e.emitter == nil {
		return
	}
	ev.At = time.Now()
	e.emitter.Emit(ev)
}

// saveLedger writes a ledger snapshot through the store in the
// background. Persistence failures are telemetry, never engine errors:
// state already committed in memory is not rolled back.
func (e *Engine) saveLedger(snap consensus.Snapshot) {
	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.SaveLedger(ctx, snap); err != nil {
			slog.Error("ledger snapshot save failed", "subject_id", snap.SubjectID, "error", err)
			e.emit(signals.Event{
				Kind:      signals.KindSnapshotSaveFailed,
				SubjectID: snap.SubjectID,
				Detail:    map[string]string{"error": err.Error()},
			})
		}
	}()
}

func (e *Engine) saveSession(snap Snapshot) {
	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.store.SaveSession(ctx, snap); err != nil {
			slog.Error("session snapshot save failed", "session_id", snap.ID, "error", err)
			e.emit(signals.Event{
				Kind:      signals.KindSnapshotSaveFailed,
				SubjectID: snap.ContestedSubjectID,
				SessionID: snap.ID,
				Detail:    map[string]string{"error": err.Error()},
			})
		}
	}()
}
