package testutil

import (
	"context"
	"sync"

	"github.com/tfwatch/tfwatch/internal/profile"
)

// ScriptedProfiles is a profile.Resolver answering from a fixed map.
// Unknown steamids resolve to (nil, nil), like a 404 from the real
// resolver.
type ScriptedProfiles struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
	lookups  []string

	// Fail, when set, is returned from every Lookup.
	Fail error
}

// NewScriptedProfiles creates a resolver over the given profiles.
func NewScriptedProfiles(profiles ...*profile.Profile) *ScriptedProfiles {
	s := &ScriptedProfiles{profiles: make(map[string]*profile.Profile)}
	for _, p := range profiles {
		s.profiles[p.SteamID] = p
	}
	return s
}

// Lookup returns the scripted profile for steamid, if any.
func (s *ScriptedProfiles) Lookup(_ context.Context, steamid string) (*profile.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups = append(s.lookups, steamid)
	if s.Fail != nil {
		return nil, s.Fail
	}
	return s.profiles[steamid], nil
}

// Lookups returns the steamids looked up so far, in order.
func (s *ScriptedProfiles) Lookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lookups...)
}
