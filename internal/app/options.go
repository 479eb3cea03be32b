package service

import (
	"time"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCorpus sets the historical corpus. Required.
func WithCorpus(c Corpus) Option {
	return func(s *Service) {
		s.corpus = c
	}
}

// WithBundle loads a trained model. Without one the service predicts with
// the rule-based fallback.
func WithBundle(b *artifacts.Bundle) Option {
	return func(s *Service) {
		s.bundle = b
	}
}

// WithInjuryProvider sets the live injury collaborator.
func WithInjuryProvider(p InjuryProvider) Option {
	return func(s *Service) {
		s.injuries = p
	}
}

// WithWeights sets the season/head-to-head block weights.
func WithWeights(w features.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithLineupSize sets how many top-minutes players form a lineup.
func WithLineupSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.lineupSize = n
		}
	}
}

// WithRecentWindow sets the trailing window for recent win percentage.
func WithRecentWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentWindow = n
		}
	}
}

// WithOutOnly counts only players listed as "Out" as missing.
func WithOutOnly(outOnly bool) Option {
	return func(s *Service) {
		s.outOnly = outOnly
	}
}

// WithClock overrides time.Now for the default as-of date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
