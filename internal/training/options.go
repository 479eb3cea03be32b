package training

import (
	"time"

	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/pkg/logger"
)

// Option applies a configuration option to the Trainer.
type Option func(*Trainer)

// WithBuilder sets the Builder shared with inference.
func WithBuilder(b *features.Builder) Option {
	return func(t *Trainer) {
		if b != nil {
			t.builder = b
		}
	}
}

// WithWorkers bounds how many games are featurized at once.
func WithWorkers(n int) Option {
	return func(t *Trainer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithMinPriorGames skips games where either team has fewer earlier games.
func WithMinPriorGames(n int) Option {
	return func(t *Trainer) {
		if n >= 0 {
			t.minPriorGames = n
		}
	}
}

// WithHoldout keeps fraction of the examples out of the fit and reports
// accuracy on them. The split is a shuffle seeded by seed.
func WithHoldout(fraction float64, seed uint64) Option {
	return func(t *Trainer) {
		if fraction >= 0 && fraction < 1 {
			t.holdout = fraction
			t.seed = seed
		}
	}
}

// WithWeights sets the block weights baked into the bundle.
func WithWeights(w features.Weights) Option {
	return func(t *Trainer) {
		t.weights = w
	}
}

// WithOutOnly records that the bundle is served counting only "Out"
// reports as missing.
func WithOutOnly(outOnly bool) Option {
	return func(t *Trainer) {
		t.outOnly = outOnly
	}
}

// WithFitOptions passes options through to the classifier fit.
func WithFitOptions(opts ...classifier.FitOption) Option {
	return func(t *Trainer) {
		t.fitOpts = append(t.fitOpts, opts...)
	}
}

// WithClock overrides time.Now for the manifest timestamp.
func WithClock(now func() time.Time) Option {
	return func(t *Trainer) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLogger sets the trainer logger.
func WithLogger(l logger.Logger) Option {
	return func(t *Trainer) {
		if l != nil {
			t.log = l
		}
	}
}
