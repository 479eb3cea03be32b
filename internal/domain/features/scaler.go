package features

import (
	"fmt"
	"math"

	"github.com/okian/matchup/internal/domain/model"
)

// MinMaxScaler maps each column to [0,1] using the range seen at fit time.
// Columns that were constant during fitting map to 0.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// FitMinMax computes per-column minima and maxima over rows.
func FitMinMax(rows [][]float64) (*MinMaxScaler, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyDataset
	}
	width := len(rows[0])
	s := &MinMaxScaler{
		Min: make([]float64, width),
		Max: make([]float64, width),
	}
	for j := range s.Min {
		s.Min[j] = math.Inf(1)
		s.Max[j] = math.Inf(-1)
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(r), width, ErrWidthMismatch)
		}
		for j, v := range r {
			s.Min[j] = math.Min(s.Min[j], v)
			s.Max[j] = math.Max(s.Max[j], v)
		}
	}
	return s, nil
}

// Width is the number of columns the scaler was fit on.
func (s *MinMaxScaler) Width() int { return len(s.Min) }

// Transform scales row into a new slice.
func (s *MinMaxScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != s.Width() || len(s.Max) != s.Width() {
		return nil, fmt.Errorf("%w: %w: scaler fit on %d columns, got %d",
			model.ErrConfiguration, ErrWidthMismatch, s.Width(), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		span := s.Max[j] - s.Min[j]
		if span == 0 {
			continue
		}
		out[j] = (v - s.Min[j]) / span
	}
	return out, nil
}
