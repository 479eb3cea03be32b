package features

import (
	"fmt"
	"math"

	"github.com/okian/matchup/internal/domain/model"
)

// Default block weights.
const (
	DefaultSeasonWeight = 0.9
	DefaultH2HWeight    = 0.1
)

// Weights scale the season blocks and the head-to-head block.
type Weights struct {
	Season     float64 `json:"season"`
	HeadToHead float64 `json:"head_to_head"`
}

// DefaultWeights returns the 0.9/0.1 split.
func DefaultWeights() Weights {
	return Weights{Season: DefaultSeasonWeight, HeadToHead: DefaultH2HWeight}
}

// WeightsFromSeason derives the head-to-head weight as 1 - season.
func WeightsFromSeason(season float64) Weights {
	return Weights{Season: season, HeadToHead: 1 - season}
}

// Validate checks both weights lie in [0,1], season is positive and they sum to 1.
func (w Weights) Validate() error {
	switch {
	case w.Season <= 0 || w.Season > 1:
		return fmt.Errorf("%w: %w: season weight %v", model.ErrConfiguration, ErrInvalidWeights, w.Season)
	case w.HeadToHead < 0 || w.HeadToHead > 1:
		return fmt.Errorf("%w: %w: head-to-head weight %v", model.ErrConfiguration, ErrInvalidWeights, w.HeadToHead)
	case math.Abs(w.Season+w.HeadToHead-1) > 1e-9:
		return fmt.Errorf("%w: %w: weights sum to %v", model.ErrConfiguration, ErrInvalidWeights, w.Season+w.HeadToHead)
	}
	return nil
}

// Equal reports whether two weightings match within float tolerance.
func (w Weights) Equal(o Weights) bool {
	return math.Abs(w.Season-o.Season) < 1e-9 && math.Abs(w.HeadToHead-o.HeadToHead) < 1e-9
}
