// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package signals

import (
	"log/slog"
	"sync"
	"time"
)

// Event kinds emitted by the engine. Delivery beyond the Emitter boundary
// is a collaborator's concern.
const (
	KindVoteCast            = "vote_cast"
	KindCampDetected        = "camp_detected"
	KindResolutionStarted   = "resolution_started"
	KindAlternativeAgreed   = "alternative_agreed"
	KindResolutionConfirmed = "resolution_confirmed"
	KindResolutionEscalated = "resolution_escalated"
	KindSnapshotSaveFailed  = "snapshot_save_failed"
)

// Event is one engine transition worth telling the outside world about.
type Event struct {
	Kind      string            `json:"kind"`
	SubjectID string            `json:"subject_id,omitempty"`
	SessionID string            `json:"session_id,omitempty"`
	Detail    map[string]string `json:"detail,omitempty"`
	At        time.Time         `json:"at"`
}

// Emitter receives engine events. Implementations must not block: the
// engine emits from inside its transition path.
type Emitter interface {
	Emit(Event)
}

// LogEmitter writes events to slog. The default when the hosting
// application wires no delivery mechanism of its own.
type LogEmitter struct {
	Logger *slog.Logger
}

func (e *LogEmitter) Emit(ev Event) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{"subject_id", ev.SubjectID}
	if ev.SessionID != "" {
		attrs = append(attrs, "session_id", ev.SessionID)
	}
	for k, v := range ev.Detail {
		attrs = append(attrs, k, v)
	}
	logger.Info(ev.Kind, attrs...)
}

// Capture records events in memory, for tests and for hosting code that
// wants to drain transitions after the fact.
type Capture struct {
	mu     sync.Mutex
	events []Event
}

func (c *Capture) Emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

// Events returns a copy of everything emitted so far, in order.
func (c *Capture) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Kinds returns just the event kinds, in emission order.
func (c *Capture) Kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]string, len(c.events))
	for i, ev := range c.events {
		kinds[i] = ev.Kind
	}
	return kinds
}
