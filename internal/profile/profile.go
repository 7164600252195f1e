// Package profile looks up external player profiles. The monitor uses
// the result for vetting: a profile identifying a legitimate
// game-controlled bot short-circuits the hacker checks, and account
// age feeds the display.
//
// Lookup failures are expected-domain conditions; callers treat them
// as "no profile" and continue.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Profile is the subset of an external account profile the monitor
// cares about.
type Profile struct {
	SteamID        string `json:"steamid"`
	PersonaName    string `json:"personaname"`
	GameBot        bool   `json:"game_bot"`
	AccountAgeDays int    `json:"account_age_days"`
}

// Resolver is the profile-lookup capability the monitor core depends
// on. Lookup returns (nil, nil) when the account has no profile.
type Resolver interface {
	Lookup(ctx context.Context, steamid string) (*Profile, error)
}

// Func adapts a function to the Resolver interface.
type Func func(ctx context.Context, steamid string) (*Profile, error)

func (f Func) Lookup(ctx context.Context, steamid string) (*Profile, error) {
	return f(ctx, steamid)
}

// HTTPResolver fetches profiles as JSON from a web endpoint.
type HTTPResolver struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPResolver creates a resolver against baseURL with a short
// request timeout; profile lookups must not stall the consumer loop
// for long.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup fetches the profile for a steamid. A 404 is (nil, nil).
func (r *HTTPResolver) Lookup(ctx context.Context, steamid string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.BaseURL+"/"+steamid, nil)
	if err != nil {
		return nil, fmt.Errorf("profile request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile lookup %s: %w", steamid, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile lookup %s: status %d", steamid, resp.StatusCode)
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("profile decode %s: %w", steamid, err)
	}
	return &p, nil
}
