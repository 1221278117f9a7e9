// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package signals is the telemetry boundary of the consensus engine.

The engine emits an Event on every externally interesting transition
(vote cast, camp detected, resolution lifecycle changes, snapshot save
failures) and owns nothing about delivery: the hosting application wires
an Emitter and forwards events wherever it likes. LogEmitter, which
writes to slog, is the default; Capture collects events in memory for
tests.
*/
package signals
