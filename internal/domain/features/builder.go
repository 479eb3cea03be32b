package features

import (
	"time"

	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/internal/domain/stats"
)

// Corpus is the read surface the Builder needs.
type Corpus interface {
	stats.GameLookup
	matchup.PlayerLookup
}

// BuilderOption applies a configuration option to the Builder.
type BuilderOption func(*Builder)

// WithCalculator replaces the snapshot calculator.
func WithCalculator(c *stats.Calculator) BuilderOption {
	return func(b *Builder) {
		if c != nil {
			b.calc = c
		}
	}
}

// WithLineupSize sets how many top-minutes players form each lineup.
func WithLineupSize(n int) BuilderOption {
	return func(b *Builder) {
		if n > 0 {
			b.lineupSize = n
		}
	}
}

// Builder gathers Inputs from the corpus. Inference and training share it so
// both sides read the same statistics the same way.
type Builder struct {
	calc       *stats.Calculator
	lineupSize int
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		calc:       stats.NewCalculator(),
		lineupSize: matchup.DefaultLineupSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Calculator returns the snapshot calculator in use.
func (b *Builder) Calculator() *stats.Calculator { return b.calc }

// LineupSize returns how many players form each lineup.
func (b *Builder) LineupSize() int { return b.lineupSize }

// Build computes snapshots, lineups and head-to-head for team1 vs team2 as of
// asOf. With priorMeetingsOnly the head-to-head only counts meetings before
// asOf; otherwise every recorded meeting counts. Missing1/Missing2 are left
// for the caller.
func (b *Builder) Build(team1, team2 string, asOf time.Time, corpus Corpus, priorMeetingsOnly bool) Inputs {
	in := Inputs{
		Team1:     b.calc.Snapshot(team1, asOf, corpus),
		Team2:     b.calc.Snapshot(team2, asOf, corpus),
		Starters1: matchup.TopPlayers(team1, asOf, b.lineupSize, corpus),
		Starters2: matchup.TopPlayers(team2, asOf, b.lineupSize, corpus),
	}
	in.Lineup1 = matchup.LineupMatchup(in.Starters1, team2, asOf, corpus)
	in.Lineup2 = matchup.LineupMatchup(in.Starters2, team1, asOf, corpus)
	if priorMeetingsOnly {
		in.HeadToHead = matchup.HeadToHeadBefore(team1, team2, asOf, corpus)
	} else {
		in.HeadToHead = matchup.HeadToHead(team1, team2, corpus)
	}
	return in
}
