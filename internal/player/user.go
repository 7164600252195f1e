// Package player maintains the in-memory model of active players:
// the Users collection, per-user counters, and kick handling. All
// mutation happens on the consumer goroutine via dispatch handlers;
// the UI reads snapshots.
package player

import (
	"fmt"

	"github.com/tfwatch/tfwatch/internal/profile"
	"github.com/tfwatch/tfwatch/internal/store"
)

// Team is a player's side.
type Team int

const (
	TeamUnassigned Team = iota
	TeamRed
	TeamBlu
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "RED"
	case TeamBlu:
		return "BLU"
	default:
		return "----"
	}
}

// Opposing returns the other team, or TeamUnassigned for itself.
func (t Team) Opposing() Team {
	switch t {
	case TeamRed:
		return TeamBlu
	case TeamBlu:
		return TeamRed
	default:
		return TeamUnassigned
	}
}

// State tracks whether a user is still present on the server.
type State int

const (
	StateActive State = iota
	StateInactive
)

// keyNameLen truncates the username inside a user key so the key stays
// printable in narrow columns.
const keyNameLen = 15

// User is one player seen in the stream. Created on first mention,
// promoted from name-keyed to steamid-keyed once a status line
// supplies a steamid, never deleted within a game session.
//
// Cross-user references (last killer/victim, clone links) are stored
// as keys into the owning Users collection, not pointers, so the
// collection remains the sole owner.
type User struct {
	Name    string
	SteamID string
	UserID  int
	Team    Team
	State   State
	Elapsed string
	Ping    int

	NKills    int
	NDeaths   int
	NSuicides int
	NCaptures int

	// Per-opponent tallies, keyed by the opponent's Key().
	Kills  map[string]int
	Deaths map[string]int

	// Per-opponent, per-weapon-state kill tallies.
	WeaponKills map[string]map[string]int

	// Chat lines spoken by this user, oldest first.
	Chats []string

	// PendingAttrs queues kick reasons raised before the steamid was
	// known; applied during vetting.
	PendingAttrs    []store.Attr
	PendingNotified bool

	LastKillerKey string
	LastVictimKey string
	CloneOfKey    string
	ClonedByKey   string

	Profile *profile.Profile

	record    *store.Player
	vetted    bool
	seenCycle int
}

func newUser(name string) *User {
	return &User{
		Name:        name,
		State:       StateActive,
		Kills:       make(map[string]int),
		Deaths:      make(map[string]int),
		WeaponKills: make(map[string]map[string]int),
	}
}

// Key returns the synthetic per-user key: userid plus the truncated
// username. Used for cross-user back-references and display.
func (u *User) Key() string {
	name := u.Name
	// Truncate over runes so a multi-byte name cannot be cut
	// mid-sequence.
	if runes := []rune(name); len(runes) > keyNameLen {
		name = string(runes[:keyNameLen])
	}
	return fmt.Sprintf("%d-%s", u.UserID, name)
}

// KDRatio returns kills/deaths, or kills when deaths is zero.
func (u *User) KDRatio() float64 {
	if u.NDeaths == 0 {
		return float64(u.NKills)
	}
	return float64(u.NKills) / float64(u.NDeaths)
}

// HackerRecord returns the persisted record attached to this user, or
// nil if none exists yet.
func (u *User) HackerRecord() *store.Player {
	return u.record
}
