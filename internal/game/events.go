// Package game holds the compiled patterns for the console lines the
// monitor understands, and the static weapon-to-role table.
package game

import "regexp"

// Console line patterns, most specific first where they overlap. The
// chat pattern must be registered before broader name-bearing patterns
// because player names can contain almost anything.
var (
	// PatternConnected matches "<name> connected".
	PatternConnected = regexp.MustCompile(`^(?P<name>.+) connected$`)

	// PatternStatus matches one row of "status" command output:
	//   #   746 "playername"   [U:1:12345678]   12:05   87   0 active
	PatternStatus = regexp.MustCompile(`^#\s*(?P<userid>\d+)\s+"(?P<name>.*)"\s+\[(?P<steamid>[^\]]*)\]\s+(?P<elapsed>[\d:]+)\s+(?P<ping>\d+)`)

	// PatternStatusHeader matches the header row preceding status
	// output, used as the status-refresh cycle boundary.
	PatternStatusHeader = regexp.MustCompile(`^# userid name`)

	// PatternLobby matches one row of lobby debug output:
	//   Member[22] [U:1:12345678]  team = TF_GC_TEAM_DEFENDERS  type = MATCH_PLAYER
	PatternLobby = regexp.MustCompile(`^\s*(?:Member|Pending)\[\d+\]\s+\[(?P<steamid>[^\]]+)\]\s+team = (?P<team>\w+)`)

	// PatternChat matches chat lines, optionally dead and/or team:
	//   *DEAD*(TEAM) name :  message
	PatternChat = regexp.MustCompile(`^(?P<dead>\*DEAD\*)?(?P<team>\(TEAM\))?\s*(?P<name>.+?) :  (?P<msg>.*)$`)

	// PatternKill matches kill lines:
	//   killer killed victim with weapon. (crit)
	PatternKill = regexp.MustCompile(`^(?P<killer>.+) killed (?P<victim>.+) with (?P<weapon>.+?)\.(?P<crit> \(crit\))?$`)

	// PatternSuicide matches "<name> suicided."
	PatternSuicide = regexp.MustCompile(`^(?P<name>.+) suicided\.$`)

	// PatternNewGame matches the map-load line that marks a new game
	// boundary, where the whole player collection is replaced.
	PatternNewGame = regexp.MustCompile(`^Map: (?P<map>\S+)`)

	// PatternCapture matches control-point capture credit lines.
	PatternCapture = regexp.MustCompile(`^(?P<name>.+) (?:captured|defended) (?P<point>.+) for team #(?P<team>\d+)$`)
)

// tsPrefix is the optional timestamp the game prepends when launched
// with timestamped console output.
const tsPrefix = `^(?:\d{2}/\d{2}/\d{4} - \d{2}:\d{2}:\d{2}: )?`

// TaggedEcho matches lines of the shape "<optional timestamp> TFW-NAME"
// — commands this program injected or echoed back through the game.
var TaggedEcho = regexp.MustCompile(tsPrefix + `TFW-(?P<cmd>\S+)$`)

// Tagged builds a pattern matching one specific tagged command, with
// the optional timestamp prefix. The body is a regexp fragment, so
// callers may embed capture groups.
func Tagged(body string) *regexp.Regexp {
	return regexp.MustCompile(tsPrefix + `TFW-` + body + `$`)
}
