package nbastats

import (
	"regexp"
	"strings"
)

// matchupPattern matches "LAL vs. BOS" (home) and "LAL @ BOS" (away).
var matchupPattern = regexp.MustCompile(`^\s*([A-Z]{2,4})\s+(vs\.?|@)\s+([A-Z]{2,4})\s*$`)

// abbreviationPattern finds bare team abbreviations when the matchup
// carries no home/away marker.
var abbreviationPattern = regexp.MustCompile(`\b([A-Z]{2,4})\b`)

// Matchup is a parsed matchup string. Team is always the side the row
// belongs to.
type Matchup struct {
	Team     string
	Opponent string
	// Directional is false when the text had no "vs." or "@" marker,
	// in which case Home is meaningless.
	Directional bool
	Home        bool
}

// ParseMatchup parses the feed's matchup text. It reports false when
// fewer than two team abbreviations can be found.
func ParseMatchup(text string) (Matchup, bool) {
	if m := matchupPattern.FindStringSubmatch(text); m != nil {
		return Matchup{
			Team:        m[1],
			Opponent:    m[3],
			Directional: true,
			Home:        strings.HasPrefix(m[2], "vs"),
		}, true
	}

	abbrs := abbreviationPattern.FindAllString(text, -1)
	if len(abbrs) < 2 || abbrs[0] == abbrs[1] {
		return Matchup{}, false
	}
	return Matchup{Team: abbrs[0], Opponent: abbrs[1]}, true
}

// parseGameCode splits a scoreboard game code such as "20241022/NYKBOS"
// into the visitor and home abbreviations.
func parseGameCode(code string) (visitor, home string, ok bool) {
	_, teams, found := strings.Cut(code, "/")
	if !found || len(teams) != 6 {
		return "", "", false
	}
	return teams[:3], teams[3:], true
}
