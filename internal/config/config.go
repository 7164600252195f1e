// Package config loads the YAML configuration file and supplies
// defaults. CLI flags override file values; see internal/cli.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rcon configures the optional direct-to-server command transport.
type Rcon struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
}

// Config is the full configuration surface.
type Config struct {
	// LogPath is the game's console log file.
	LogPath string `yaml:"log_path"`

	// ScriptDir is the game cfg directory the outbound script is
	// written into. Missing directory disables script writing.
	ScriptDir string `yaml:"script_dir"`

	// PlayerDB is the SQLite hacker database path. Empty disables
	// persistence.
	PlayerDB string `yaml:"player_db"`

	// ProfileURL is the base URL for player-profile lookups. Empty
	// disables vetting by profile.
	ProfileURL string `yaml:"profile_url"`

	// PlayerName is the local operator's in-game name.
	PlayerName string `yaml:"player_name"`

	Rewind     bool `yaml:"rewind"`
	NoFollow   bool `yaml:"no_follow"`
	SingleStep bool `yaml:"single_step"`

	BreakLine     int      `yaml:"break_line"`
	SearchPattern string   `yaml:"search_pattern"`
	Injects       []string `yaml:"injects"`
	InjectFile    string   `yaml:"inject_file"`

	Exclude       []string `yaml:"exclude"`
	CheaterNames  []string `yaml:"cheater_names"`
	RacistPattern string   `yaml:"racist_pattern"`

	ShowTaunts bool `yaml:"show_taunts"`
	ShowThroes bool `yaml:"show_throes"`

	InactiveCycles int `yaml:"inactive_cycles"`

	Rcon Rcon `yaml:"rcon"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogPath:        "console.log",
		InactiveCycles: 3,
		ShowThroes:     true,
		Exclude: []string{
			`^Failed to find attachment point`,
			`^Missing Vgui material`,
			`^Requesting texture value`,
			`^Error: Material`,
			`^Unable to remove`,
			`^Cannot update control point`,
			`^SOLID_VPHYSICS static prop with no vphysics model`,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged; a present but unreadable or invalid
// file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the fields that must be well-formed before startup.
func (c *Config) Validate() error {
	if c.LogPath == "" {
		return fmt.Errorf("log_path is required")
	}
	for _, expr := range c.Exclude {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", expr, err)
		}
	}
	for _, expr := range c.CheaterNames {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("cheater_names pattern %q: %w", expr, err)
		}
	}
	if c.RacistPattern != "" {
		if _, err := regexp.Compile(c.RacistPattern); err != nil {
			return fmt.Errorf("racist_pattern %q: %w", c.RacistPattern, err)
		}
	}
	if c.InactiveCycles < 0 {
		return fmt.Errorf("inactive_cycles must be >= 0")
	}
	return nil
}
