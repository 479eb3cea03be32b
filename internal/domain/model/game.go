// Package model contains domain models passed between layers.
package model

import (
	"math"
	"strings"
	"time"
)

// Result is the outcome of a game from one team's side.
type Result string

// Game results.
const (
	Win  Result = "W"
	Loss Result = "L"
)

// ParseResult maps "W"/"L" (any case, surrounding space ignored) to a Result.
func ParseResult(s string) (Result, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "W", "WIN":
		return Win, true
	case "L", "LOSS":
		return Loss, true
	}
	return "", false
}

// GameRecord is one team's line for one game. Identified by (GameID, Team).
// Stat fields hold NaN when the source omitted them or could not be parsed.
type GameRecord struct {
	GameID        string
	Date          time.Time
	Team          string
	Opponent      string
	IsHome        bool
	PointsScored  float64
	PointsAllowed float64
	FGPct         float64
	FG3Pct        float64
	FTPct         float64
	OffRebounds   float64
	DefRebounds   float64
	Turnovers     float64
	Assists       float64
	Result        Result
}

// PlayerGameRecord is one player's line for one game.
// A NaN or zero Minutes value means the player did not play.
type PlayerGameRecord struct {
	GameID   string
	Date     time.Time
	Player   string
	Team     string
	Opponent string
	Minutes  float64
	Points   float64
	Rebounds float64
	Assists  float64
	FGPct    float64
}

// Played reports whether the player logged minutes in the game.
func (p PlayerGameRecord) Played() bool {
	return !math.IsNaN(p.Minutes) && p.Minutes > 0
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// TeamCode normalizes a team abbreviation.
func TeamCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// PlayerKey normalizes a player name for lookups and vocabulary columns.
func PlayerKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
