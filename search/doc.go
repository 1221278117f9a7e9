// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package search is the HTTP client for the external activity-search
collaborator. The engine asks it for alternative activities when a slot
splits; sourcing and ranking are entirely the collaborator's business.

Wire format: POST {base}/alternatives with the contested subject id, the
opaque roster preferences, and an optional limit; the response carries an
"alternatives" array of candidates with optional fit scores.
*/
package search
