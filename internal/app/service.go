// Package service provides the prediction service behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/internal/domain/stats"
	"github.com/okian/matchup/pkg/logger"
	"github.com/okian/matchup/pkg/metrics"
)

// ErrNotStarted is returned by calls made before Start.
var ErrNotStarted = errors.New("service not started")

// Corpus is the read-only historical data the service predicts from.
type Corpus interface {
	features.Corpus
	Teams() []string
	HasTeam(team string) bool
	Count(ctx context.Context) (games, players int)
}

// InjuryProvider supplies the current injury state and its provenance.
type InjuryProvider interface {
	Current(ctx context.Context) (model.InjuryState, model.InjurySource, error)
}

// Request is one prediction query. A zero AsOf means today.
type Request struct {
	Team1           string    `json:"team1"`
	Team2           string    `json:"team2"`
	Team1BackToBack bool      `json:"team1_back_to_back"`
	Team2BackToBack bool      `json:"team2_back_to_back"`
	AsOf            time.Time `json:"as_of,omitempty"`
}

// Stats describes the loaded corpus and model.
type Stats struct {
	Teams          int              `json:"teams"`
	Games          int              `json:"games"`
	PlayerRows     int              `json:"player_rows"`
	ModelType      model.ModelType  `json:"model_type"`
	SchemaVersion  string           `json:"schema_version"`
	FeatureWidth   int              `json:"feature_width"`
	VocabularySize int              `json:"vocabulary_size"`
	Weights        features.Weights `json:"weights"`
	TrainedAt      *time.Time       `json:"trained_at,omitempty"`
	TrainAccuracy  float64          `json:"train_accuracy,omitempty"`

	// HoldoutAccuracy is zero when the bundle was fit on every example.
	HoldoutAccuracy float64 `json:"holdout_accuracy,omitempty"`
}

// Service answers predictions over a corpus, an optional trained bundle and
// an optional injury provider. After Start everything it reads is immutable.
type Service struct {
	mu sync.RWMutex

	corpus   Corpus
	bundle   *artifacts.Bundle
	injuries InjuryProvider

	weights      features.Weights
	lineupSize   int
	recentWindow int
	outOnly      bool
	now          func() time.Time

	builder   *features.Builder
	assembler *features.Assembler
	model     classifier.Classifier

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		weights:      features.DefaultWeights(),
		lineupSize:   matchup.DefaultLineupSize,
		recentWindow: stats.DefaultRecentWindow,
		now:          time.Now,
		logger:       nil, // replaced at Start
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start checks the configuration and prepares the feature pipeline. A
// bundle that does not match the configured weights, lineup size, recent
// window or injury selection fails here rather than at request time.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.corpus == nil {
		return fmt.Errorf("%w: no corpus", model.ErrConfiguration)
	}
	if err := s.weights.Validate(); err != nil {
		return err
	}

	s.builder = features.NewBuilder(
		features.WithCalculator(stats.NewCalculator(stats.WithRecentWindow(s.recentWindow))),
		features.WithLineupSize(s.lineupSize),
	)

	if s.bundle != nil {
		a, err := s.bundle.Assembler(s.weights, s.settings())
		if err != nil {
			return err
		}
		s.assembler = a
		s.model = s.bundle.Model
		metrics.UpdateArtifacts(a.Len(), s.bundle.Vocabulary.Len())
	} else {
		metrics.UpdateArtifacts(0, 0)
	}

	games, players := s.corpus.Count(ctx)
	s.started = true
	s.logger.Info(ctx, "prediction service started",
		logger.String("model_type", string(s.modelType())),
		logger.Int("teams", len(s.corpus.Teams())),
		logger.Int("games", games),
		logger.Int("player_rows", players),
		logger.Float64("season_weight", s.weights.Season),
		logger.Bool("injury_provider", s.injuries != nil),
	)
	return nil
}

// Stop marks the service stopped. Loaded data stays in memory.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "prediction service stopped")
}

func (s *Service) settings() artifacts.Settings {
	return artifacts.Settings{
		LineupSize:    s.lineupSize,
		RecentWindow:  s.recentWindow,
		InjuryOutOnly: s.outOnly,
	}
}

func (s *Service) modelType() model.ModelType {
	if s.model != nil {
		return model.ModelML
	}
	return model.ModelRuleBased
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Predict returns the expected winner of team1 vs team2.
func (s *Service) Predict(ctx context.Context, req Request) (model.Prediction, error) {
	start := time.Now()
	p, err := s.predict(ctx, req)
	if err != nil {
		metrics.RecordPredictionError(errorKind(err))
		return model.Prediction{}, err
	}
	metrics.RecordPrediction(string(p.ModelType), float64(time.Since(start).Microseconds())/1000)
	return p, nil
}

func (s *Service) predict(ctx context.Context, req Request) (model.Prediction, error) {
	if err := s.ready(); err != nil {
		return model.Prediction{}, err
	}
	t1, t2, err := s.checkTeams(req.Team1, req.Team2)
	if err != nil {
		return model.Prediction{}, err
	}
	asOf := s.asOf(req.AsOf)

	// A backdated request sees only meetings before its date, as in training.
	in := s.builder.Build(t1, t2, asOf, s.corpus, !req.AsOf.IsZero())
	applyBackToBack(&in.Team1, req.Team1BackToBack)
	applyBackToBack(&in.Team2, req.Team2BackToBack)
	source := s.fillInjuries(ctx, &in, asOf)

	p := model.Prediction{
		ID:           uuid.NewString(),
		Team1:        model.TeamStats{Snapshot: in.Team1, Lineup: in.Lineup1, MissingStarters: in.Missing1},
		Team2:        model.TeamStats{Snapshot: in.Team2, Lineup: in.Lineup2, MissingStarters: in.Missing2},
		HeadToHead:   in.HeadToHead,
		InjurySource: source,
		GeneratedAt:  s.now().UTC(),
	}

	if s.model == nil {
		diff := in.Team1.WinPct - in.Team2.WinPct
		p.Winner = t1
		if diff < 0 {
			p.Winner = t2
		}
		p.Confidence = round1(100 * math.Abs(diff))
		p.ModelType = model.ModelRuleBased
		return p, nil
	}

	vec, err := s.assembler.Assemble(in)
	if err != nil {
		return model.Prediction{}, err
	}
	proba, err := s.model.PredictProba(vec.Values)
	if err != nil {
		return model.Prediction{}, err
	}
	p.Winner = t1
	if proba[classifier.ClassTeam2] > proba[classifier.ClassTeam1] {
		p.Winner = t2
	}
	p.Confidence = round1(100 * math.Max(proba[classifier.ClassTeam1], proba[classifier.ClassTeam2]))
	p.ModelType = model.ModelML
	p.SchemaVersion = vec.SchemaVersion
	return p, nil
}

func (s *Service) checkTeams(a, b string) (string, string, error) {
	t1, t2 := model.TeamCode(a), model.TeamCode(b)
	switch {
	case t1 == "" || t2 == "":
		return "", "", fmt.Errorf("%w: both teams are required", model.ErrValidation)
	case t1 == t2:
		return "", "", fmt.Errorf("%w: a team cannot play itself (%s)", model.ErrValidation, t1)
	}
	for _, t := range []string{t1, t2} {
		if !s.corpus.HasTeam(t) {
			return "", "", fmt.Errorf("team %s: %w", t, model.ErrNotFound)
		}
	}
	return t1, t2, nil
}

func (s *Service) asOf(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return model.Day(t)
}

func applyBackToBack(t *model.TeamSnapshot, b2b bool) {
	if b2b {
		t.BackToBack = true
		t.DaysRest = 1
	}
}

// fillInjuries sets Missing1/Missing2 from the live injury state, or from
// the starters who missed each team's latest game when no live state is
// available.
func (s *Service) fillInjuries(ctx context.Context, in *features.Inputs, asOf time.Time) model.InjurySource {
	if s.injuries != nil {
		state, source, err := s.injuries.Current(ctx)
		if err == nil {
			in.Missing1 = matchup.InjuredStarters(in.Starters1, state[in.Team1.Team], s.outOnly)
			in.Missing2 = matchup.InjuredStarters(in.Starters2, state[in.Team2.Team], s.outOnly)
			return source
		}
		s.logger.Warn(ctx, "injury state unavailable, using historical missing starters", logger.Error(err))
	}
	in.Missing1 = s.historicalMissing(in.Team1.Team, in.Starters1, asOf)
	in.Missing2 = s.historicalMissing(in.Team2.Team, in.Starters2, asOf)
	return model.InjuryHistorical
}

func (s *Service) historicalMissing(team string, starters []string, asOf time.Time) []string {
	prior := stats.Before(s.corpus.TeamGames(team), asOf)
	if len(prior) == 0 {
		return []string{}
	}
	return matchup.MissingStarters(starters, prior[len(prior)-1].GameID, s.corpus)
}

// Snapshot returns a team's form as of asOf (today when zero).
func (s *Service) Snapshot(_ context.Context, team string, asOf time.Time) (model.TeamSnapshot, error) {
	if err := s.ready(); err != nil {
		return model.TeamSnapshot{}, err
	}
	team = model.TeamCode(team)
	if team == "" {
		return model.TeamSnapshot{}, fmt.Errorf("%w: team is required", model.ErrValidation)
	}
	if !s.corpus.HasTeam(team) {
		return model.TeamSnapshot{}, fmt.Errorf("team %s: %w", team, model.ErrNotFound)
	}
	return s.builder.Calculator().Snapshot(team, s.asOf(asOf), s.corpus), nil
}

// HeadToHead returns every recorded meeting between a and b, labeled in
// call order.
func (s *Service) HeadToHead(_ context.Context, a, b string) (model.HeadToHeadRecord, error) {
	if err := s.ready(); err != nil {
		return model.HeadToHeadRecord{}, err
	}
	t1, t2, err := s.checkTeams(a, b)
	if err != nil {
		return model.HeadToHeadRecord{}, err
	}
	return matchup.HeadToHead(t1, t2, s.corpus), nil
}

// Teams lists the team codes present in the corpus.
func (s *Service) Teams(_ context.Context) ([]string, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.corpus.Teams(), nil
}

// GetStats describes the loaded corpus and model.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	if err := s.ready(); err != nil {
		return Stats{}, err
	}
	games, players := s.corpus.Count(ctx)
	st := Stats{
		Teams:      len(s.corpus.Teams()),
		Games:      games,
		PlayerRows: players,
		ModelType:  s.modelType(),
		Weights:    s.weights,
	}
	if s.bundle != nil {
		m := s.bundle.Manifest
		trained := m.TrainedAt
		st.SchemaVersion = m.SchemaVersion
		st.FeatureWidth = m.FeatureWidth
		st.VocabularySize = m.VocabularySize
		st.TrainedAt = &trained
		st.TrainAccuracy = m.Accuracy
		st.HoldoutAccuracy = m.HoldoutAccuracy
	}
	return st, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "validation"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	}
	return "internal"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
