package model

import "time"

// TeamSnapshot is a team's form computed only from games before AsOf.
type TeamSnapshot struct {
	Team                string    `json:"team"`
	AsOf                time.Time `json:"as_of"`
	Games               int       `json:"games"`
	Wins                int       `json:"wins"`
	Losses              int       `json:"losses"`
	WinPct              float64   `json:"win_pct"`
	RecentWinPct        float64   `json:"recent_win_pct"`
	AvgPoints           float64   `json:"avg_points"`
	AvgPointsAllowed    float64   `json:"avg_points_allowed"`
	FGPct               float64   `json:"fg_pct"`
	FG3Pct              float64   `json:"fg3_pct"`
	FTPct               float64   `json:"ft_pct"`
	OffRebounds         float64   `json:"off_rebounds"`
	DefRebounds         float64   `json:"def_rebounds"`
	Turnovers           float64   `json:"turnovers"`
	Assists             float64   `json:"assists"`
	AssistTurnoverRatio float64   `json:"assist_turnover_ratio"`
	DaysRest            int       `json:"days_rest"`
	BackToBack          bool      `json:"back_to_back"`
	Streak              int       `json:"streak"`
}

// DefaultSnapshot is the snapshot of a team with no prior games.
func DefaultSnapshot(team string, asOf time.Time) TeamSnapshot {
	return TeamSnapshot{
		Team:         team,
		AsOf:         asOf,
		WinPct:       0.5,
		RecentWinPct: 0.5,
	}
}

// PlayerDifferential is one lineup player's vs-opponent minus season averages.
type PlayerDifferential struct {
	Player          string  `json:"player"`
	SeasonGames     int     `json:"season_games"`
	GamesVsOpponent int     `json:"games_vs_opponent"`
	PointsDiff      float64 `json:"points_diff"`
	ReboundsDiff    float64 `json:"rebounds_diff"`
	AssistsDiff     float64 `json:"assists_diff"`
	FGPctDiff       float64 `json:"fg_pct_diff"`
}

// LineupMatchupSnapshot aggregates a lineup's differentials against one opponent.
type LineupMatchupSnapshot struct {
	Opponent        string               `json:"opponent"`
	AsOf            time.Time            `json:"as_of"`
	Players         []PlayerDifferential `json:"players"`
	PointsDiff      float64              `json:"points_diff"`
	ReboundsDiff    float64              `json:"rebounds_diff"`
	AssistsDiff     float64              `json:"assists_diff"`
	FGPctDiff       float64              `json:"fg_pct_diff"`
	GamesVsOpponent int                  `json:"games_vs_opponent"`
}

// HeadToHeadRecord tallies meetings between two teams, labeled in call order.
type HeadToHeadRecord struct {
	TeamA       string  `json:"team_a"`
	TeamB       string  `json:"team_b"`
	TeamAWins   int     `json:"team_a_wins"`
	TeamBWins   int     `json:"team_b_wins"`
	Total       int     `json:"total"`
	TeamAWinPct float64 `json:"team_a_win_pct"`
	TeamBWinPct float64 `json:"team_b_win_pct"`
}
