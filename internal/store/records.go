package store

import "strings"

// Attr is a persisted player attribute flag.
type Attr string

const (
	AttrCheater   Attr = "cheater"
	AttrRacist    Attr = "racist"
	AttrSuspect   Attr = "suspect"
	AttrExploiter Attr = "exploiter"
)

// bannedAttrs are the attributes that trigger an automatic kick-vote.
// Suspect and exploiter are tracked but do not auto-kick.
var bannedAttrs = map[Attr]bool{
	AttrCheater: true,
	AttrRacist:  true,
}

// Player is one persisted record, keyed by steamid.
type Player struct {
	SteamID      string
	Attrs        []Attr
	Names        []string // distinct usernames seen under this steamid
	KickCount    int
	FirstSession string
	LastSession  string
}

// HasAttr reports whether the record carries the attribute.
func (p *Player) HasAttr(attr Attr) bool {
	for _, a := range p.Attrs {
		if a == attr {
			return true
		}
	}
	return false
}

// AddAttr adds an attribute if not already present. Returns true if
// the record changed.
func (p *Player) AddAttr(attr Attr) bool {
	if p.HasAttr(attr) {
		return false
	}
	p.Attrs = append(p.Attrs, attr)
	return true
}

// AddName records a username seen under this steamid, once.
func (p *Player) AddName(name string) bool {
	for _, n := range p.Names {
		if n == name {
			return false
		}
	}
	p.Names = append(p.Names, name)
	return true
}

// Banned reports whether any attribute on the record triggers an
// automatic kick-vote.
func (p *Player) Banned() bool {
	for _, a := range p.Attrs {
		if bannedAttrs[a] {
			return true
		}
	}
	return false
}

// Records is the player-store capability the monitor core depends on.
// Get returns (nil, nil) when no record exists.
type Records interface {
	Get(steamid string) (*Player, error)
	Put(p *Player) error
}

// Attrs and names are stored as comma-joined text. Player names may
// contain commas, so names use a unit separator instead.
const nameSep = "\x1f"

func joinAttrs(attrs []Attr) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = string(a)
	}
	return strings.Join(parts, ",")
}

func splitAttrs(s string) []Attr {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	attrs := make([]Attr, len(parts))
	for i, p := range parts {
		attrs[i] = Attr(p)
	}
	return attrs
}

func joinNames(names []string) string {
	return strings.Join(names, nameSep)
}

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, nameSep)
}
