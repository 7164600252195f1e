package player

import "sort"

// Duel is a per-opponent scoreline for one user, recomputed from the
// user's counters on demand. Never stored.
type Duel struct {
	Opponent string // opponent key
	Kills    int
	Deaths   int

	// Weapons breaks kills down by weapon-state key.
	Weapons map[string]int
}

// Duels derives the duel list for a user, sorted by opponent key for
// stable display.
func Duels(u *User) []Duel {
	keys := make(map[string]bool, len(u.Kills)+len(u.Deaths))
	for k := range u.Kills {
		keys[k] = true
	}
	for k := range u.Deaths {
		keys[k] = true
	}

	duels := make([]Duel, 0, len(keys))
	for k := range keys {
		d := Duel{
			Opponent: k,
			Kills:    u.Kills[k],
			Deaths:   u.Deaths[k],
		}
		if wk := u.WeaponKills[k]; len(wk) > 0 {
			d.Weapons = make(map[string]int, len(wk))
			for ws, n := range wk {
				d.Weapons[ws] = n
			}
		}
		duels = append(duels, d)
	}

	sort.Slice(duels, func(i, j int) bool { return duels[i].Opponent < duels[j].Opponent })
	return duels
}
