package player

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/unicode/norm"

	"github.com/tfwatch/tfwatch/internal/game"
	"github.com/tfwatch/tfwatch/internal/profile"
	"github.com/tfwatch/tfwatch/internal/script"
	"github.com/tfwatch/tfwatch/internal/store"
)

// botSteamID is what the status line shows in place of a steamid for
// game-controlled bots.
const botSteamID = "BOT"

// cloneThreshold is the minimum edit-distance similarity for two names
// to be flagged as a possible name clone.
const cloneThreshold = 0.8

const maxChats = 20

// Config carries the knobs for a Users collection.
type Config struct {
	// Me is the local operator's username. Kills involving the
	// operator may push taunt/throe messages onto the spams queue.
	Me string

	// CheaterNames are patterns matched against new usernames; a hit
	// queues a cheater kick.
	CheaterNames []string

	// RacistPattern is matched against new usernames and chat text; a
	// hit queues a racist kick.
	RacistPattern string

	ShowTaunts bool
	ShowThroes bool

	// InactiveCycles is how many status-refresh cycles a user can go
	// unmentioned before being marked inactive.
	InactiveCycles int

	// Session identifies this process run in persisted records.
	Session string
}

// Users owns every User seen this game session, keyed by normalized
// username and, once known, by steamid. It is mutated only by the
// consumer goroutine's dispatch handlers.
type Users struct {
	cfg      Config
	records  store.Records    // may be nil: persistence disabled
	profiles profile.Resolver // may be nil: vetting skips profiles
	kicks    *script.Queue
	spams    *script.Queue
	notify   func(string)

	cheaterNames []*regexp.Regexp
	racist       *regexp.Regexp

	byName    map[string]*User
	bySteamID map[string]*User

	// kicked records userids already voted on, to avoid duplicates.
	kicked map[int]bool

	// lobbyTeams holds steamid→team assignments from lobby lines that
	// arrived before the status line naming the player.
	lobbyTeams map[string]Team

	cycle   int
	mapName string
}

// New creates a Users collection. The notify callback surfaces
// operator-attention messages (may be nil).
func New(cfg Config, records store.Records, profiles profile.Resolver, kicks, spams *script.Queue, notify func(string)) (*Users, error) {
	if cfg.InactiveCycles <= 0 {
		cfg.InactiveCycles = 3
	}
	if notify == nil {
		notify = func(msg string) { slog.Warn(msg) }
	}

	us := &Users{
		cfg:        cfg,
		records:    records,
		profiles:   profiles,
		kicks:      kicks,
		spams:      spams,
		notify:     notify,
		byName:     make(map[string]*User),
		bySteamID:  make(map[string]*User),
		kicked:     make(map[int]bool),
		lobbyTeams: make(map[string]Team),
	}

	for _, expr := range cfg.CheaterNames {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("cheater-name pattern %q: %w", expr, err)
		}
		us.cheaterNames = append(us.cheaterNames, re)
	}
	if cfg.RacistPattern != "" {
		re, err := regexp.Compile(cfg.RacistPattern)
		if err != nil {
			return nil, fmt.Errorf("racist pattern %q: %w", cfg.RacistPattern, err)
		}
		us.racist = re
	}

	us.cfg.Me = NormalizeName(cfg.Me)
	return us, nil
}

// NormalizeName canonicalizes a username for keying. Semicolons become
// dots so a crafted name cannot smuggle a command separator into
// generated script text.
func NormalizeName(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	return strings.ReplaceAll(name, ";", ".")
}

// Get returns the user for a username, creating one on first mention.
// Creation runs the cheater-name and racist-name checks and the fuzzy
// clone scan.
func (us *Users) Get(name string) *User {
	name = NormalizeName(name)
	if u, ok := us.byName[name]; ok {
		us.markSeen(u)
		return u
	}

	u := newUser(name)
	u.seenCycle = us.cycle
	us.byName[name] = u
	slog.Debug("new user", "name", name)

	for _, re := range us.cheaterNames {
		if re.MatchString(name) {
			slog.Info("cheater name", "name", name, "pattern", re.String())
			us.Kick(u, store.AttrCheater)
			break
		}
	}
	if us.racist != nil && us.racist.MatchString(name) {
		slog.Info("racist name", "name", name)
		us.Kick(u, store.AttrRacist)
	}

	us.checkClone(u)
	return u
}

// checkClone compares a new name against users that have a resolved
// profile but no hacker record, to catch name-cloning impersonation.
// A hit cross-links the two users; it does not kick.
func (us *Users) checkClone(u *User) {
	for _, other := range us.byName {
		if other == u || other.Profile == nil || other.record != nil {
			continue
		}
		if nameSimilarity(u.Name, other.Name) >= cloneThreshold {
			u.CloneOfKey = other.Key()
			other.ClonedByKey = u.Key()
			us.notify(fmt.Sprintf("possible name clone: %q vs %q", u.Name, other.Name))
			slog.Warn("possible name clone", "cloner", u.Name, "clonee", other.Name)
			return
		}
	}
}

// nameSimilarity returns 1 - editDistance/maxLen over runes.
func nameSimilarity(a, b string) float64 {
	la := len([]rune(a))
	lb := len([]rune(b))
	max := la
	if lb > max {
		max = lb
	}
	if max == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(max)
}

// Status ingests one row of status output. A user already known by
// steamid has username/userid drift reconciled rather than creating a
// duplicate; otherwise the user is resolved by name and, when the
// steamid is new, vetted.
func (us *Users) Status(ctx context.Context, userid int, name, steamid, elapsed string, ping int) {
	name = NormalizeName(name)

	if steamid != "" {
		if u, ok := us.bySteamID[steamid]; ok {
			if u.Name != name {
				slog.Warn("username changed", "steamid", steamid, "old", u.Name, "new", name)
				delete(us.byName, u.Name)
				u.Name = name
				us.byName[name] = u
			}
			if u.UserID != userid {
				slog.Warn("userid changed", "steamid", steamid, "old", u.UserID, "new", userid)
				u.UserID = userid
			}
			u.Elapsed = elapsed
			u.Ping = ping
			us.markSeen(u)
			return
		}
	}

	u := us.Get(name)
	u.UserID = userid
	u.Elapsed = elapsed
	u.Ping = ping

	if steamid != "" {
		switch {
		case u.SteamID == "":
			u.SteamID = steamid
			us.bySteamID[steamid] = u
			if team, ok := us.lobbyTeams[steamid]; ok {
				u.Team = team
				delete(us.lobbyTeams, steamid)
			}
			us.vet(ctx, u)
		case u.SteamID != steamid:
			// The name now belongs to a different account. Re-key the
			// user and vet the new steamid; the old account's record
			// and profile no longer apply.
			slog.Warn("steamid changed", "name", name, "old", u.SteamID, "new", steamid)
			delete(us.bySteamID, u.SteamID)
			u.SteamID = steamid
			us.bySteamID[steamid] = u
			u.record = nil
			u.Profile = nil
			u.vetted = false
			us.vet(ctx, u)
		}
	}
}

// vet runs the once-per-user checks when a steamid first becomes
// known: profile lookup (game bots short-circuit), persisted record
// application, pending attribute flush, and a kick when the combined
// record is banned.
func (us *Users) vet(ctx context.Context, u *User) {
	if u.vetted {
		return
	}
	u.vetted = true

	if u.SteamID == botSteamID {
		slog.Debug("game bot, skipping vetting", "name", u.Name)
		return
	}

	if us.profiles != nil {
		p, err := us.profiles.Lookup(ctx, u.SteamID)
		if err != nil {
			slog.Debug("profile lookup failed", "steamid", u.SteamID, "error", err)
		} else if p != nil {
			u.Profile = p
			if p.GameBot {
				slog.Debug("profile says game bot, skipping hacker checks", "name", u.Name)
				return
			}
		}
	}

	if us.records == nil {
		return
	}

	rec, err := us.records.Get(u.SteamID)
	if err != nil {
		slog.Error("hacker record lookup failed", "steamid", u.SteamID, "error", err)
		return
	}

	switch {
	case rec != nil:
		u.record = rec
		rec.AddName(u.Name)
		rec.LastSession = us.cfg.Session
		for _, attr := range u.PendingAttrs {
			rec.AddAttr(attr)
		}
		u.PendingAttrs = nil
		if err := us.records.Put(rec); err != nil {
			slog.Error("hacker record update failed", "steamid", u.SteamID, "error", err)
		}
		slog.Info("known player", "name", u.Name, "steamid", u.SteamID, "attrs", rec.Attrs)
		if rec.Banned() {
			us.vote(u, rec)
		}

	case len(u.PendingAttrs) > 0:
		rec = &store.Player{
			SteamID:      u.SteamID,
			FirstSession: us.cfg.Session,
			LastSession:  us.cfg.Session,
		}
		rec.AddName(u.Name)
		for _, attr := range u.PendingAttrs {
			rec.AddAttr(attr)
		}
		u.PendingAttrs = nil
		u.record = rec
		if err := us.records.Put(rec); err != nil {
			slog.Error("hacker record insert failed", "steamid", u.SteamID, "error", err)
		}
		if rec.Banned() {
			us.vote(u, rec)
		}
	}
}

// Kill ingests one kill line, updating symmetric counters on both
// parties and inferring the unknown party's team from the other's.
func (us *Users) Kill(killerName, victimName, weapon string, crit bool) {
	k := us.Get(killerName)
	v := us.Get(victimName)

	k.NKills++
	v.NDeaths++
	k.Kills[v.Key()]++
	v.Deaths[k.Key()]++

	ws := game.NewWeaponState(weapon, crit).Key()
	if k.WeaponKills[v.Key()] == nil {
		k.WeaponKills[v.Key()] = make(map[string]int)
	}
	k.WeaponKills[v.Key()][ws]++

	k.LastVictimKey = v.Key()
	v.LastKillerKey = k.Key()

	// Opposite sides by definition.
	if k.Team == TeamUnassigned && v.Team != TeamUnassigned {
		k.Team = v.Team.Opposing()
	}
	if v.Team == TeamUnassigned && k.Team != TeamUnassigned {
		v.Team = k.Team.Opposing()
	}

	if us.cfg.ShowTaunts && k.Name == us.cfg.Me {
		us.spams.PushBack(fmt.Sprintf("say %s vs %s: %d-%d (%.1f)",
			k.Name, v.Name, k.Kills[v.Key()], k.Deaths[v.Key()], k.KDRatio()))
	}
	if us.cfg.ShowThroes && v.Name == us.cfg.Me {
		us.spams.PushBack(fmt.Sprintf("say nice shot %s", k.Name))
	}
}

// Suicide ingests a suicide line. Counts as a death.
func (us *Users) Suicide(name string) {
	u := us.Get(name)
	u.NSuicides++
	u.NDeaths++
}

// Chat ingests a chat line, running the racist-text check.
func (us *Users) Chat(name, msg string) {
	u := us.Get(name)
	u.Chats = append(u.Chats, msg)
	if len(u.Chats) > maxChats {
		u.Chats = u.Chats[len(u.Chats)-maxChats:]
	}
	if us.racist != nil && us.racist.MatchString(msg) {
		slog.Info("racist chat", "name", name, "msg", msg)
		us.Kick(u, store.AttrRacist)
	}
}

// Lobby ingests a lobby membership line: steamid plus team. The name
// is not known yet, so assignments for unseen steamids are held until
// the status line arrives.
func (us *Users) Lobby(steamid, teamName string) {
	var team Team
	switch {
	case strings.HasSuffix(teamName, "DEFENDERS"):
		team = TeamRed
	case strings.HasSuffix(teamName, "INVADERS"):
		team = TeamBlu
	default:
		slog.Debug("unknown lobby team", "team", teamName)
		return
	}

	if u, ok := us.bySteamID[steamid]; ok {
		u.Team = team
		us.markSeen(u)
		return
	}
	us.lobbyTeams[steamid] = team
}

// NewGame replaces the whole collection at a game boundary. Persisted
// records survive; in-memory users do not.
func (us *Users) NewGame(mapName string) {
	slog.Info("new game", "map", mapName, "users", len(us.byName))
	us.byName = make(map[string]*User)
	us.bySteamID = make(map[string]*User)
	us.kicked = make(map[int]bool)
	us.lobbyTeams = make(map[string]Team)
	us.cycle = 0
	us.mapName = mapName
}

// AgeCycle advances the status-refresh cycle and marks users inactive
// after going unmentioned for the configured number of cycles.
func (us *Users) AgeCycle() {
	us.cycle++
	for _, u := range us.byName {
		if u.State == StateActive && us.cycle-u.seenCycle >= us.cfg.InactiveCycles {
			slog.Debug("user inactive", "name", u.Name)
			u.State = StateInactive
		}
	}
}

func (us *Users) markSeen(u *User) {
	u.seenCycle = us.cycle
	u.State = StateActive
}

// Lookup returns the user for a normalized username, if present.
func (us *Users) Lookup(name string) (*User, bool) {
	u, ok := us.byName[NormalizeName(name)]
	return u, ok
}

// ByKey resolves a cross-user reference key back to its user.
func (us *Users) ByKey(key string) (*User, bool) {
	for _, u := range us.byName {
		if u.Key() == key {
			return u, true
		}
	}
	return nil, false
}

// Len returns the number of users this session.
func (us *Users) Len() int {
	return len(us.byName)
}

// MapName returns the current map, if a new-game line has been seen.
func (us *Users) MapName() string {
	return us.mapName
}

// ToggleTaunts flips the taunt-message toggle and returns the new
// state.
func (us *Users) ToggleTaunts() bool {
	us.cfg.ShowTaunts = !us.cfg.ShowTaunts
	return us.cfg.ShowTaunts
}

// ToggleThroes flips the death-message toggle and returns the new
// state.
func (us *Users) ToggleThroes() bool {
	us.cfg.ShowThroes = !us.cfg.ShowThroes
	return us.cfg.ShowThroes
}

// All returns every user, unordered. Callers must not retain the
// slice across dispatches.
func (us *Users) All() []*User {
	all := make([]*User, 0, len(us.byName))
	for _, u := range us.byName {
		all = append(all, u)
	}
	return all
}
