package injury

import (
	"regexp"
	"strings"
)

var injurySuffix = regexp.MustCompile(`\s*injur(y|ies)(\s+report)?\s*`) //nolint:gochecknoglobals // compiled once

// teamAliases maps lower-cased names, nicknames and codes to team codes.
var teamAliases = map[string]string{ //nolint:gochecknoglobals // read-only lookup table
	"atlanta hawks": "ATL", "hawks": "ATL", "atl": "ATL",
	"boston celtics": "BOS", "celtics": "BOS", "bos": "BOS",
	"brooklyn nets": "BKN", "nets": "BKN", "bkn": "BKN",
	"charlotte hornets": "CHA", "hornets": "CHA", "cha": "CHA",
	"chicago bulls": "CHI", "bulls": "CHI", "chi": "CHI",
	"cleveland cavaliers": "CLE", "cavaliers": "CLE", "cavs": "CLE", "cle": "CLE",
	"dallas mavericks": "DAL", "mavericks": "DAL", "mavs": "DAL", "dal": "DAL",
	"denver nuggets": "DEN", "nuggets": "DEN", "den": "DEN",
	"detroit pistons": "DET", "pistons": "DET", "det": "DET",
	"golden state warriors": "GSW", "warriors": "GSW", "gsw": "GSW",
	"houston rockets": "HOU", "rockets": "HOU", "hou": "HOU",
	"indiana pacers": "IND", "pacers": "IND", "ind": "IND",
	"la clippers": "LAC", "los angeles clippers": "LAC", "clippers": "LAC", "lac": "LAC",
	"la lakers": "LAL", "los angeles lakers": "LAL", "lakers": "LAL", "lal": "LAL",
	"memphis grizzlies": "MEM", "grizzlies": "MEM", "mem": "MEM",
	"miami heat": "MIA", "heat": "MIA", "mia": "MIA",
	"milwaukee bucks": "MIL", "bucks": "MIL", "mil": "MIL",
	"minnesota timberwolves": "MIN", "timberwolves": "MIN", "wolves": "MIN", "min": "MIN",
	"new orleans pelicans": "NOP", "pelicans": "NOP", "nop": "NOP",
	"new york knicks": "NYK", "knicks": "NYK", "nyk": "NYK",
	"oklahoma city thunder": "OKC", "thunder": "OKC", "okc": "OKC",
	"orlando magic": "ORL", "magic": "ORL", "orl": "ORL",
	"philadelphia 76ers": "PHI", "76ers": "PHI", "sixers": "PHI", "phi": "PHI",
	"phoenix suns": "PHX", "suns": "PHX", "phx": "PHX",
	"portland trail blazers": "POR", "trail blazers": "POR", "blazers": "POR", "por": "POR",
	"sacramento kings": "SAC", "kings": "SAC", "sac": "SAC",
	"san antonio spurs": "SAS", "spurs": "SAS", "sas": "SAS",
	"toronto raptors": "TOR", "raptors": "TOR", "tor": "TOR",
	"utah jazz": "UTA", "jazz": "UTA", "uta": "UTA",
	"washington wizards": "WAS", "wizards": "WAS", "wiz": "WAS", "was": "WAS",
}

// TeamCode maps a team name as published by injury pages ("Los Angeles
// Lakers", "Lakers Injuries", "lal") to its code. ok is false for unknown names.
func TeamCode(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.TrimSpace(injurySuffix.ReplaceAllString(key, " "))
	code, ok := teamAliases[key]
	return code, ok
}
