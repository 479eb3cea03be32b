// Package matchup computes head-to-head records, lineup-vs-opponent
// differentials and missing-starter detection.
package matchup

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/internal/domain/stats"
)

// DefaultLineupSize is how many top-minutes players make a lineup.
const DefaultLineupSize = 5

// PlayerLookup is the slice of the corpus the lineup functions read.
type PlayerLookup interface {
	PlayerGames(player string) []model.PlayerGameRecord
	TeamPlayerGames(team string) []model.PlayerGameRecord
	PlayerGame(gameID, player string) (model.PlayerGameRecord, bool)
}

// HeadToHead tallies every recorded meeting between a and b. A meeting is
// found from either team's rows and counted once per game id. Output is
// labeled in call order.
func HeadToHead(a, b string, games stats.GameLookup) model.HeadToHeadRecord {
	return headToHead(a, b, time.Time{}, games)
}

// HeadToHeadBefore is HeadToHead restricted to meetings dated before asOf.
func HeadToHeadBefore(a, b string, asOf time.Time, games stats.GameLookup) model.HeadToHeadRecord {
	return headToHead(a, b, model.Day(asOf), games)
}

func headToHead(a, b string, asOf time.Time, games stats.GameLookup) model.HeadToHeadRecord {
	a, b = model.TeamCode(a), model.TeamCode(b)
	rec := model.HeadToHeadRecord{TeamA: a, TeamB: b}

	seen := make(map[string]struct{})
	tally := func(from, against string, flip bool) {
		for _, g := range games.TeamGames(from) {
			if !asOf.IsZero() && !g.Date.Before(asOf) {
				break
			}
			if g.Opponent != against {
				continue
			}
			if _, ok := seen[g.GameID]; ok {
				continue
			}
			res := g.Result
			if res == "" {
				if opp, ok := games.OpponentRecord(g.GameID, from); ok {
					res = invert(opp.Result)
				}
			}
			if res == "" {
				continue
			}
			seen[g.GameID] = struct{}{}
			if (res == model.Win) != flip {
				rec.TeamAWins++
			} else {
				rec.TeamBWins++
			}
		}
	}
	tally(a, b, false)
	tally(b, a, true)

	rec.Total = rec.TeamAWins + rec.TeamBWins
	rec.TeamAWinPct = stats.WinPct(rec.TeamAWins, rec.TeamBWins)
	rec.TeamBWinPct = stats.WinPct(rec.TeamBWins, rec.TeamAWins)
	return rec
}

func invert(r model.Result) model.Result {
	switch r {
	case model.Win:
		return model.Loss
	case model.Loss:
		return model.Win
	}
	return ""
}

// TopPlayers returns up to n players of team ordered by cumulative minutes
// over the team's games before asOf. Ties break by name.
func TopPlayers(team string, asOf time.Time, n int, players PlayerLookup) []string {
	asOf = model.Day(asOf)
	minutes := make(map[string]float64)
	display := make(map[string]string)
	for _, p := range players.TeamPlayerGames(model.TeamCode(team)) {
		if !p.Date.Before(asOf) {
			break
		}
		if !p.Played() {
			continue
		}
		key := model.PlayerKey(p.Player)
		minutes[key] += p.Minutes
		display[key] = p.Player
	}

	keys := make([]string, 0, len(minutes))
	for k := range minutes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if minutes[keys[i]] != minutes[keys[j]] {
			return minutes[keys[i]] > minutes[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = display[k]
	}
	return out
}

// LineupMatchup averages the lineup's vs-opponent minus season differentials
// over games before asOf. lineup is taken as given, normally from TopPlayers.
//
// A player with no prior games at all is dropped from the lineup. A player
// with prior games but none against opponent stays in with zero
// differentials and contributes zero games.
func LineupMatchup(lineup []string, opponent string, asOf time.Time, players PlayerLookup) model.LineupMatchupSnapshot {
	opponent = model.TeamCode(opponent)
	asOf = model.Day(asOf)

	snap := model.LineupMatchupSnapshot{
		Opponent: opponent,
		AsOf:     asOf,
		Players:  []model.PlayerDifferential{},
	}
	for _, name := range lineup {
		d, ok := playerDifferential(name, opponent, asOf, players)
		if !ok {
			continue
		}
		snap.Players = append(snap.Players, d)
		snap.PointsDiff += d.PointsDiff
		snap.ReboundsDiff += d.ReboundsDiff
		snap.AssistsDiff += d.AssistsDiff
		snap.FGPctDiff += d.FGPctDiff
		snap.GamesVsOpponent += d.GamesVsOpponent
	}
	if n := float64(len(snap.Players)); n > 0 {
		snap.PointsDiff /= n
		snap.ReboundsDiff /= n
		snap.AssistsDiff /= n
		snap.FGPctDiff /= n
	}
	return snap
}

type playerAverages struct {
	games                int
	pts, reb, ast, fgPct float64
}

func playerDifferential(name, opponent string, asOf time.Time, players PlayerLookup) (model.PlayerDifferential, bool) {
	var season, vs []model.PlayerGameRecord
	for _, p := range players.PlayerGames(name) {
		if !p.Date.Before(asOf) {
			break
		}
		if !p.Played() {
			continue
		}
		season = append(season, p)
		if p.Opponent == opponent {
			vs = append(vs, p)
		}
	}
	if len(season) == 0 {
		return model.PlayerDifferential{}, false
	}
	d := model.PlayerDifferential{
		Player:      name,
		SeasonGames: len(season),
	}
	if len(vs) == 0 {
		return d, true
	}
	s, v := averages(season), averages(vs)
	d.GamesVsOpponent = v.games
	d.PointsDiff = v.pts - s.pts
	d.ReboundsDiff = v.reb - s.reb
	d.AssistsDiff = v.ast - s.ast
	d.FGPctDiff = v.fgPct - s.fgPct
	return d, true
}

func averages(rows []model.PlayerGameRecord) playerAverages {
	var pts, reb, ast, fg, nPts, nReb, nAst, nFG float64
	for _, r := range rows {
		if !math.IsNaN(r.Points) {
			pts += r.Points
			nPts++
		}
		if !math.IsNaN(r.Rebounds) {
			reb += r.Rebounds
			nReb++
		}
		if !math.IsNaN(r.Assists) {
			ast += r.Assists
			nAst++
		}
		if !math.IsNaN(r.FGPct) {
			fg += r.FGPct
			nFG++
		}
	}
	return playerAverages{
		games: len(rows),
		pts:   div(pts, nPts),
		reb:   div(reb, nReb),
		ast:   div(ast, nAst),
		fgPct: div(fg, nFG),
	}
}

func div(sum, n float64) float64 {
	if n == 0 {
		return 0
	}
	return sum / n
}

// MissedGame reports whether player has no row for gameID or logged no minutes.
func MissedGame(player, gameID string, players PlayerLookup) bool {
	rec, ok := players.PlayerGame(gameID, player)
	return !ok || !rec.Played()
}

// MissingStarters returns the lineup players who missed gameID.
func MissingStarters(lineup []string, gameID string, players PlayerLookup) []string {
	out := []string{}
	for _, p := range lineup {
		if MissedGame(p, gameID, players) {
			out = append(out, p)
		}
	}
	return out
}

// InjuredStarters returns the lineup players named in reports. Names match
// on the normalized full name first, then on the lineup player's last name
// appearing as a whole word in the reported name. With outOnly set, only "Out" reports count.
func InjuredStarters(lineup []string, reports []model.InjuryReport, outOnly bool) []string {
	injured := make([]string, 0, len(reports))
	for _, r := range reports {
		if outOnly && !r.Out() {
			continue
		}
		injured = append(injured, model.PlayerKey(r.Player))
	}

	out := []string{}
	for _, p := range lineup {
		key := model.PlayerKey(p)
		if key == "" {
			continue
		}
		if matchInjured(key, injured) {
			out = append(out, p)
		}
	}
	return out
}

func matchInjured(key string, injured []string) bool {
	for _, name := range injured {
		if name == key {
			return true
		}
	}
	last := lastName(key)
	for _, name := range injured {
		for _, tok := range strings.Fields(name) {
			if strings.TrimRight(tok, ".") == last {
				return true
			}
		}
	}
	return false
}

var nameSuffixes = map[string]struct{}{
	"jr": {}, "sr": {}, "ii": {}, "iii": {}, "iv": {}, "v": {},
}

// lastName returns the final token of a normalized name, skipping
// generational suffixes such as "Jr.".
func lastName(key string) string {
	fields := strings.Fields(key)
	for len(fields) > 1 {
		if _, ok := nameSuffixes[strings.TrimRight(fields[len(fields)-1], ".")]; !ok {
			break
		}
		fields = fields[:len(fields)-1]
	}
	return strings.TrimRight(fields[len(fields)-1], ".")
}
