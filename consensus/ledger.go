// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

// Choice is a single member's stance on a subject. The zero value means
// the member has not voted yet.
type Choice string

const (
	ChoiceUnset Choice = ""
	ChoiceYes   Choice = "yes"
	ChoiceMaybe Choice = "maybe"
	ChoiceNo    Choice = "no"
)

// Valid reports whether c is one of the castable choices. ChoiceUnset is
// not castable: a member withdraws a vote by changing it, not by unsetting.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceYes, ChoiceMaybe, ChoiceNo:
		return true
	}
	return false
}

// Favorable reports whether the choice counts toward the "for" camp.
// Grouping maybe with yes is a policy constant of the product, not an
// accident; it lives here and nowhere else.
func (c Choice) Favorable() bool {
	return c == ChoiceYes || c == ChoiceMaybe
}

// Opposed reports whether the choice counts toward the "against" camp.
func (c Choice) Opposed() bool {
	return c == ChoiceNo
}

// Member identifies a roster member when a ledger is opened.
type Member struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
}

// MemberVote is one member's entry in a ledger: identity plus current
// choice. Exactly one exists per (ledger, member), created unset when the
// ledger opens and mutated only by that member casting or changing their
// own vote.
type MemberVote struct {
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
	AvatarRef   string `json:"avatar_ref,omitempty"`
	Choice      Choice `json:"choice"`
}

// Ledger holds all members' votes for one votable subject. Zero-value
// Ledger is not usable; open one with NewLedger or FromSnapshot.
type Ledger struct {
	subjectID string
	members   []MemberVote
	closed    bool
}

// NewLedger opens a ledger for subjectID with one unset vote per roster
// member. The roster must be non-empty and free of duplicate ids.
func NewLedger(subjectID string, roster []Member) (*Ledger, error) {
	if len(roster) == 0 {
		return nil, ErrEmptyRoster
	}

	seen := make(map[string]bool, len(roster))
	members := make([]MemberVote, len(roster))
	for i, m := range roster {
		if seen[m.ID] {
			return nil, ErrDuplicateMember
		}
		seen[m.ID] = true
		members[i] = MemberVote{
			MemberID:    m.ID,
			DisplayName: m.DisplayName,
			AvatarRef:   m.AvatarRef,
			Choice:      ChoiceUnset,
		}
	}

	return &Ledger{subjectID: subjectID, members: members}, nil
}

// SubjectID returns the id of the slot or alternative this ledger votes on.
func (l *Ledger) SubjectID() string {
	return l.subjectID
}

// Closed reports whether the ledger has stopped accepting votes.
func (l *Ledger) Closed() bool {
	return l.closed
}

// RosterSize returns the number of members on the roster.
func (l *Ledger) RosterSize() int {
	return len(l.members)
}

// Roster returns the member identities, in roster order, with choices
// stripped. Useful for opening sibling ledgers over the same group.
func (l *Ledger) Roster() []Member {
	roster := make([]Member, len(l.members))
	for i, mv := range l.members {
		roster[i] = Member{ID: mv.MemberID, DisplayName: mv.DisplayName, AvatarRef: mv.AvatarRef}
	}
	return roster
}

// Members returns a copy of the member votes in roster order.
func (l *Ledger) Members() []MemberVote {
	out := make([]MemberVote, len(l.members))
	copy(out, l.members)
	return out
}

// CastVote records memberID's choice and returns the resulting ledger
// snapshot. The receiver is not mutated, so concurrent readers of the old
// snapshot keep a consistent view. A member may change their vote any
// number of times while the ledger is open; the last write wins. Other
// members' votes are never touched.
func (l *Ledger) CastVote(memberID string, choice Choice) (*Ledger, error) {
	if l.closed {
		return nil, ErrLedgerClosed
	}
	if !choice.Valid() {
		return nil, ErrUnknownChoice
	}

	idx := -1
	for i := range l.members {
		if l.members[i].MemberID == memberID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrUnknownMember
	}

	members := make([]MemberVote, len(l.members))
	copy(members, l.members)
	members[idx].Choice = choice

	return &Ledger{subjectID: l.subjectID, members: members}, nil
}

// Close freezes the ledger. Further CastVote calls fail with
// ErrLedgerClosed. Closing an already-closed ledger is a no-op.
func (l *Ledger) Close() {
	l.closed = true
}

// Reset returns a fresh open ledger over the same subject and roster with
// every choice back to unset. Used between resolution rounds.
func (l *Ledger) Reset() *Ledger {
	fresh, _ := NewLedger(l.subjectID, l.Roster())
	return fresh
}

// Snapshot is the persistence representation of a ledger. Reconstructing
// a ledger from its snapshot must reproduce an identical verdict under
// the same policy.
type Snapshot struct {
	SubjectID string       `json:"subject_id"`
	Members   []MemberVote `json:"members"`
	Closed    bool         `json:"closed"`
}

// Snapshot returns a copy of the ledger suitable for persistence.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		SubjectID: l.subjectID,
		Members:   l.Members(),
		Closed:    l.closed,
	}
}

// FromSnapshot reconstructs a ledger from its persistence representation.
func FromSnapshot(s Snapshot) (*Ledger, error) {
	if len(s.Members) == 0 {
		return nil, ErrEmptyRoster
	}
	seen := make(map[string]bool, len(s.Members))
	for _, mv := range s.Members {
		if seen[mv.MemberID] {
			return nil, ErrDuplicateMember
		}
		seen[mv.MemberID] = true
	}
	members := make([]MemberVote, len(s.Members))
	copy(members, s.Members)
	return &Ledger{subjectID: s.SubjectID, members: members, closed: s.Closed}, nil
}
