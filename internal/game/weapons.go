package game

import (
	"log/slog"
	"sync"
)

// Role is the class a weapon belongs to.
type Role string

const (
	RoleScout    Role = "scout"
	RoleSoldier  Role = "soldier"
	RolePyro     Role = "pyro"
	RoleDemo     Role = "demo"
	RoleHeavy    Role = "heavy"
	RoleEngineer Role = "engineer"
	RoleMedic    Role = "medic"
	RoleSniper   Role = "sniper"
	RoleSpy      Role = "spy"
	RoleUnknown  Role = "unknown"
)

// weaponRoles maps console weapon names to the role that carries them.
// Not exhaustive; unknown weapons resolve to RoleUnknown and are
// logged once.
var weaponRoles = map[string]Role{
	"scattergun":                RoleScout,
	"force_a_nature":            RoleScout,
	"the_winger":                RoleScout,
	"pep_pistol":                RoleScout,
	"sandman":                   RoleScout,
	"bat":                       RoleScout,
	"tf_projectile_rocket":      RoleSoldier,
	"rocketlauncher_directhit":  RoleSoldier,
	"quake_rl":                  RoleSoldier,
	"blackbox":                  RoleSoldier,
	"shovel":                    RoleSoldier,
	"market_gardener":           RoleSoldier,
	"flamethrower":              RolePyro,
	"degreaser":                 RolePyro,
	"phlogistinator":            RolePyro,
	"flaregun":                  RolePyro,
	"axtinguisher":              RolePyro,
	"deflect_rocket":            RolePyro,
	"tf_projectile_pipe":        RoleDemo,
	"tf_projectile_pipe_remote": RoleDemo,
	"iron_bomber":               RoleDemo,
	"loch_n_load":               RoleDemo,
	"sticky_resistance":         RoleDemo,
	"bottle":                    RoleDemo,
	"minigun":                   RoleHeavy,
	"tomislav":                  RoleHeavy,
	"brass_beast":               RoleHeavy,
	"fists":                     RoleHeavy,
	"world":                     RoleHeavy, // sandvich choking, close enough
	"shotgun_primary":           RoleEngineer,
	"wrench":                    RoleEngineer,
	"obj_sentrygun":             RoleEngineer,
	"obj_sentrygun2":            RoleEngineer,
	"obj_sentrygun3":            RoleEngineer,
	"obj_minisentry":            RoleEngineer,
	"frontier_justice":          RoleEngineer,
	"syringegun_medic":          RoleMedic,
	"crusaders_crossbow":        RoleMedic,
	"bonesaw":                   RoleMedic,
	"ubersaw":                   RoleMedic,
	"sniperrifle":               RoleSniper,
	"awper_hand":                RoleSniper,
	"machina":                   RoleSniper,
	"compound_bow":              RoleSniper,
	"tf_projectile_arrow":       RoleSniper,
	"kukri":                     RoleSniper,
	"knife":                     RoleSpy,
	"eternal_reward":            RoleSpy,
	"big_earner":                RoleSpy,
	"black_rose":                RoleSpy,
	"revolver":                  RoleSpy,
	"ambassador":                RoleSpy,
	"enforcer":                  RoleSpy,
	"diamondback":               RoleSpy,
}

var (
	unknownMu     sync.Mutex
	unknownLogged = map[string]bool{}
)

// WeaponRole resolves a console weapon name to its role. Unknown
// weapons resolve to RoleUnknown, logged once per name.
func WeaponRole(weapon string) Role {
	if role, ok := weaponRoles[weapon]; ok {
		return role
	}
	unknownMu.Lock()
	if !unknownLogged[weapon] {
		unknownLogged[weapon] = true
		slog.Debug("unknown weapon", "weapon", weapon)
	}
	unknownMu.Unlock()
	return RoleUnknown
}

// WeaponState is the display key for a kill: the role, the exact
// weapon, and whether the shot was a crit.
type WeaponState struct {
	Role   Role
	Weapon string
	Crit   bool
}

// NewWeaponState resolves a weapon name into its state key.
func NewWeaponState(weapon string, crit bool) WeaponState {
	return WeaponState{Role: WeaponRole(weapon), Weapon: weapon, Crit: crit}
}

// Key returns the stable string form used to tally per-weapon-state
// counters.
func (w WeaponState) Key() string {
	k := string(w.Role) + ":" + w.Weapon
	if w.Crit {
		k += "+crit"
	}
	return k
}
