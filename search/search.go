// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/danielhkuo/detour/resolution"
)

// Client calls the external activity-search service over HTTP. It
// implements resolution.Fetcher; the engine supplies the deadline via
// context, so the client carries no timeout of its own.
type Client struct {
	// BaseURL of the search service, without trailing slash.
	BaseURL string

	// Limit caps how many candidates are requested. Zero means the
	// service default; the engine truncates to its policy regardless.
	Limit int

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

type fetchRequest struct {
	ContestedSubjectID string                       `json:"contested_subject_id"`
	RosterPreferences  resolution.RosterPreferences `json:"roster_preferences,omitempty"`
	Limit              int                          `json:"limit,omitempty"`
}

type fetchResponse struct {
	Alternatives []resolution.Candidate `json:"alternatives"`
}

// FetchAlternatives requests alternative activities for a contested slot.
// The roster preferences are forwarded opaquely.
func (c *Client) FetchAlternatives(ctx context.Context, contestedSubjectID string, prefs resolution.RosterPreferences) ([]resolution.Candidate, error) {
	body, err := json.Marshal(fetchRequest{
		ContestedSubjectID: contestedSubjectID,
		RosterPreferences:  prefs,
		Limit:              c.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/alternatives", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		// Deadline errors surface as ctx.Err so the engine can tell a
		// timeout from a hard failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search service returned %s", resp.Status)
	}

	var decoded fetchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return decoded.Alternatives, nil
}
