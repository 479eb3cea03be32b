package features

import (
	"fmt"

	"github.com/okian/matchup/internal/domain/model"
)

// Inputs is everything the vector is built from, framed from team1's side.
// Starters1/Starters2 are the lineups behind Lineup1/Lineup2; they are not
// columns themselves but callers match injuries against them.
type Inputs struct {
	Team1      model.TeamSnapshot
	Team2      model.TeamSnapshot
	Starters1  []string
	Starters2  []string
	Lineup1    model.LineupMatchupSnapshot
	Lineup2    model.LineupMatchupSnapshot
	Missing1   []string
	Missing2   []string
	HeadToHead model.HeadToHeadRecord
}

// Raw returns the unscaled vector for schema. Team1 is always the home side
// of the home indicator.
func Raw(s Schema, in Inputs) []float64 {
	t1, t2 := seasonValues(in.Team1, 1), seasonValues(in.Team2, 0)
	row := make([]float64, 0, s.Len())
	for i := range t1 {
		row = append(row, t1[i], t2[i])
	}
	row = append(row,
		in.Team1.WinPct-in.Team2.WinPct,
		(in.Team1.AvgPoints-in.Team1.AvgPointsAllowed)-(in.Team2.AvgPoints-in.Team2.AvgPointsAllowed),
		float64(in.Team1.DaysRest-in.Team2.DaysRest),
		float64(in.Team1.Streak-in.Team2.Streak),
		in.Team1.FGPct-in.Team2.FGPct,
		in.Team1.FG3Pct-in.Team2.FG3Pct,
	)
	row = append(row, lineupValues(in.Lineup1)...)
	row = append(row, lineupValues(in.Lineup2)...)
	row = append(row, s.Vocabulary.Encode(in.Missing1, in.Missing2)...)
	return append(row, in.HeadToHead.TeamAWinPct, in.HeadToHead.TeamBWinPct)
}

// seasonValues follows pairedStats order.
func seasonValues(t model.TeamSnapshot, home float64) []float64 {
	return []float64{
		float64(t.Wins),
		float64(t.Losses),
		t.WinPct,
		t.RecentWinPct,
		t.AvgPoints,
		t.AvgPointsAllowed,
		t.FGPct,
		t.FG3Pct,
		t.FTPct,
		t.OffRebounds,
		t.DefRebounds,
		t.Turnovers,
		t.AssistTurnoverRatio,
		home,
		boolValue(t.BackToBack),
		float64(t.DaysRest),
		float64(t.Streak),
	}
}

func lineupValues(l model.LineupMatchupSnapshot) []float64 {
	return []float64{l.PointsDiff, l.ReboundsDiff, l.AssistsDiff, l.FGPctDiff, float64(l.GamesVsOpponent)}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Assembler scales and weights raw rows into model input. It is immutable
// after construction and safe for concurrent use.
type Assembler struct {
	schema  Schema
	scaler  *MinMaxScaler
	weights Weights
}

// NewAssembler checks that scaler and weights fit schema.
func NewAssembler(schema Schema, scaler *MinMaxScaler, weights Weights) (*Assembler, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	if scaler == nil || scaler.Width() != schema.ScaledLen() {
		width := 0
		if scaler != nil {
			width = scaler.Width()
		}
		return nil, fmt.Errorf("%w: %w: scaler width %d, schema %s expects %d",
			model.ErrConfiguration, ErrWidthMismatch, width, schema.Version, schema.ScaledLen())
	}
	return &Assembler{schema: schema, scaler: scaler, weights: weights}, nil
}

// Schema returns the column contract the assembler emits.
func (a *Assembler) Schema() Schema { return a.schema }

// Len is the emitted vector width.
func (a *Assembler) Len() int { return a.schema.Len() }

// Assemble builds the scaled, weighted vector for in.
func (a *Assembler) Assemble(in Inputs) (model.FeatureVector, error) {
	return a.Transform(Raw(a.schema, in))
}

// Transform scales and weights an already-raw row.
func (a *Assembler) Transform(raw []float64) (model.FeatureVector, error) {
	if len(raw) != a.schema.Len() {
		return model.FeatureVector{}, fmt.Errorf("%w: %w: row has %d columns, schema %s expects %d",
			model.ErrConfiguration, ErrWidthMismatch, len(raw), a.schema.Version, a.schema.Len())
	}
	k := a.schema.ScaledLen()
	scaled, err := a.scaler.Transform(raw[:k])
	if err != nil {
		return model.FeatureVector{}, err
	}
	out := make([]float64, 0, len(raw))
	for _, v := range scaled {
		out = append(out, v*a.weights.Season)
	}
	for _, v := range raw[k:] {
		out = append(out, v*a.weights.HeadToHead)
	}
	return model.FeatureVector{SchemaVersion: a.schema.Version, Values: out}, nil
}
