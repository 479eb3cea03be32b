package model

import "time"

// ModelType tells which path produced a prediction.
type ModelType string

// Prediction paths.
const (
	ModelML        ModelType = "ML"
	ModelRuleBased ModelType = "rule-based"
)

// InjurySource records where the injury block of a prediction came from.
type InjurySource string

// Injury provenance values.
const (
	InjuryLive       InjurySource = "live"
	InjuryCache      InjurySource = "cache"
	InjuryStale      InjurySource = "stale-cache"
	InjuryHistorical InjurySource = "historical"
)

// FeatureVector is an ordered feature row tagged with the schema it follows.
type FeatureVector struct {
	SchemaVersion string    `json:"schema_version"`
	Values        []float64 `json:"values"`
}

// Len returns the number of features.
func (v FeatureVector) Len() int { return len(v.Values) }

// TeamStats is the per-team section of a prediction.
type TeamStats struct {
	Snapshot        TeamSnapshot          `json:"snapshot"`
	Lineup          LineupMatchupSnapshot `json:"lineup"`
	MissingStarters []string              `json:"missing_starters"`
}

// Prediction is the result handed to the request layer.
type Prediction struct {
	ID            string           `json:"id"`
	Winner        string           `json:"winner"`
	Confidence    float64          `json:"confidence"`
	ModelType     ModelType        `json:"model_type"`
	Team1         TeamStats        `json:"team1_stats"`
	Team2         TeamStats        `json:"team2_stats"`
	HeadToHead    HeadToHeadRecord `json:"head_to_head"`
	InjurySource  InjurySource     `json:"injury_source"`
	SchemaVersion string           `json:"schema_version,omitempty"`
	GeneratedAt   time.Time        `json:"generated_at"`
}
