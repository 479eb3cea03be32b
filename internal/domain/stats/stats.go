// Package stats computes point-in-time team snapshots.
//
// A snapshot for (team, asOf) is a pure function of the games that team
// played strictly before asOf. Nothing dated on or after asOf is read.
package stats

import (
	"math"
	"time"

	"github.com/okian/matchup/internal/domain/model"
)

// DefaultRecentWindow is the trailing game count used for RecentWinPct.
const DefaultRecentWindow = 5

// GameLookup is the slice of the corpus the calculator reads.
type GameLookup interface {
	TeamGames(team string) []model.GameRecord
	OpponentRecord(gameID, team string) (model.GameRecord, bool)
}

// Calculator builds TeamSnapshots. It holds no state besides configuration
// and is safe for concurrent use.
type Calculator struct {
	recentWindow int
}

// NewCalculator creates a Calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{recentWindow: DefaultRecentWindow}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecentWindow returns the trailing game count behind RecentWinPct.
func (c *Calculator) RecentWindow() int { return c.recentWindow }

// Snapshot returns the team's form as of asOf. A team with no prior games
// gets model.DefaultSnapshot.
func (c *Calculator) Snapshot(team string, asOf time.Time, games GameLookup) model.TeamSnapshot {
	team = model.TeamCode(team)
	asOf = model.Day(asOf)
	prior := Before(games.TeamGames(team), asOf)
	if len(prior) == 0 {
		return model.DefaultSnapshot(team, asOf)
	}

	s := model.TeamSnapshot{
		Team:  team,
		AsOf:  asOf,
		Games: len(prior),
	}
	results := make([]model.Result, len(prior))
	for i, g := range prior {
		results[i] = g.Result
		switch g.Result {
		case model.Win:
			s.Wins++
		case model.Loss:
			s.Losses++
		}
	}
	s.WinPct = WinPct(s.Wins, s.Losses)
	s.RecentWinPct = c.recentWinPct(results)
	s.Streak = Streak(results)

	var pts, fg, fg3, ft, oreb, dreb, tov, ast mean
	var allowed mean
	for _, g := range prior {
		pts.add(g.PointsScored)
		fg.add(g.FGPct)
		fg3.add(g.FG3Pct)
		ft.add(g.FTPct)
		oreb.add(g.OffRebounds)
		dreb.add(g.DefRebounds)
		tov.add(g.Turnovers)
		ast.add(g.Assists)
		// Points allowed come from the opponent's own row. Unmatched games
		// are left out of the average rather than counted as zero.
		if opp, ok := games.OpponentRecord(g.GameID, team); ok {
			allowed.add(opp.PointsScored)
		}
	}
	s.AvgPoints = pts.value()
	s.AvgPointsAllowed = allowed.value()
	s.FGPct = fg.value()
	s.FG3Pct = fg3.value()
	s.FTPct = ft.value()
	s.OffRebounds = oreb.value()
	s.DefRebounds = dreb.value()
	s.Turnovers = tov.value()
	s.Assists = ast.value()
	if s.Turnovers > 0 {
		s.AssistTurnoverRatio = s.Assists / s.Turnovers
	}

	s.DaysRest = model.DaysBetween(prior[len(prior)-1].Date, asOf)
	s.BackToBack = s.DaysRest == 1
	return s
}

func (c *Calculator) recentWinPct(results []model.Result) float64 {
	start := len(results) - c.recentWindow
	if start < 0 {
		start = 0
	}
	var w, l int
	for _, r := range results[start:] {
		switch r {
		case model.Win:
			w++
		case model.Loss:
			l++
		}
	}
	return WinPct(w, l)
}

// Before returns the games dated strictly before asOf. Input must be
// chronological; the result shares its backing array.
func Before(games []model.GameRecord, asOf time.Time) []model.GameRecord {
	asOf = model.Day(asOf)
	n := 0
	for n < len(games) && games[n].Date.Before(asOf) {
		n++
	}
	return games[:n]
}

// WinPct is wins/(wins+losses), or 0.5 with no decided games.
func WinPct(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0.5
	}
	return float64(wins) / float64(wins+losses)
}

// Streak walks back from the last result: +n for n straight wins, -n for
// n straight losses, 0 for no games. An unknown result ends the run.
func Streak(results []model.Result) int {
	if len(results) == 0 {
		return 0
	}
	last := results[len(results)-1]
	if last != model.Win && last != model.Loss {
		return 0
	}
	n := 0
	for i := len(results) - 1; i >= 0 && results[i] == last; i-- {
		n++
	}
	if last == model.Loss {
		return -n
	}
	return n
}

// mean skips NaN samples; an empty mean is 0.
type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}
