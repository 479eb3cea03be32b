// Package training turns the historical corpus into labeled feature rows and
// fits a bundle with the same Builder and Assembler the service uses.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/internal/domain/stats"
	"github.com/okian/matchup/pkg/logger"
	"github.com/okian/matchup/pkg/metrics"
)

// ErrNoGames is returned when the corpus yields no usable game.
var ErrNoGames = errors.New("no trainable games in corpus")

// Corpus is the read surface training needs.
type Corpus interface {
	features.Corpus
	GameIDs() []string
	GameRows(gameID string) []model.GameRecord
}

// Example is one game seen from the home team.
type Example struct {
	GameID string
	Date   time.Time
	Inputs features.Inputs
	// Label is classifier.ClassTeam1 when the home team won.
	Label int
}

// Dataset is the labeled examples plus the vocabulary frozen from them.
type Dataset struct {
	Examples   []Example
	Vocabulary features.Vocabulary
}

// Trainer builds datasets and fits bundles.
type Trainer struct {
	builder       *features.Builder
	workers       int
	minPriorGames int
	holdout       float64
	seed          uint64
	outOnly       bool
	weights       features.Weights
	fitOpts       []classifier.FitOption
	now           func() time.Time
	log           logger.Logger
}

// New creates a Trainer.
func New(opts ...Option) *Trainer {
	t := &Trainer{
		builder: features.NewBuilder(),
		workers: runtime.NumCPU(),
		weights: features.DefaultWeights(),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Dataset featurizes every game with exactly two team rows and a decided
// result. Each game is built as of its own date with head-to-head limited
// to earlier meetings, and its injury block lists the lineup players who
// missed that game. The vocabulary is every player missing in some example.
func (t *Trainer) Dataset(ctx context.Context, corpus Corpus) (*Dataset, error) {
	ids := corpus.GameIDs()
	slots := make([]*Example, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			slots[i] = t.example(id, corpus)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{Examples: make([]Example, 0, len(ids))}
	var missing []string
	for _, ex := range slots {
		if ex == nil {
			continue
		}
		ds.Examples = append(ds.Examples, *ex)
		missing = append(missing, ex.Inputs.Missing1...)
		missing = append(missing, ex.Inputs.Missing2...)
	}
	if len(ds.Examples) == 0 {
		return nil, ErrNoGames
	}
	ds.Vocabulary = features.NewVocabulary(missing)

	t.log.Info(ctx, "training dataset built",
		logger.Int("games", len(ids)),
		logger.Int("examples", len(ds.Examples)),
		logger.Int("vocabulary", ds.Vocabulary.Len()),
	)
	return ds, nil
}

// example returns nil for games that cannot be labeled.
func (t *Trainer) example(id string, corpus Corpus) *Example {
	rows := corpus.GameRows(id)
	if len(rows) != 2 || rows[0].IsHome == rows[1].IsHome {
		return nil
	}
	home, away := rows[0], rows[1]
	if away.IsHome {
		home, away = away, home
	}
	if home.Result != model.Win && home.Result != model.Loss {
		return nil
	}
	if t.minPriorGames > 0 {
		for _, team := range []string{home.Team, away.Team} {
			if len(stats.Before(corpus.TeamGames(team), home.Date)) < t.minPriorGames {
				return nil
			}
		}
	}

	in := t.builder.Build(home.Team, away.Team, home.Date, corpus, true)
	in.Missing1 = matchup.MissingStarters(in.Starters1, id, corpus)
	in.Missing2 = matchup.MissingStarters(in.Starters2, id, corpus)

	label := classifier.ClassTeam2
	if home.Result == model.Win {
		label = classifier.ClassTeam1
	}
	return &Example{GameID: id, Date: home.Date, Inputs: in, Label: label}
}

// Fit scales the dataset, trains the classifier and returns the bundle.
// With a holdout configured the scaler and model see only the training
// split.
func (t *Trainer) Fit(ctx context.Context, ds *Dataset) (*artifacts.Bundle, error) {
	if ds == nil || len(ds.Examples) == 0 {
		return nil, ErrNoGames
	}
	schema := features.NewSchema(ds.Vocabulary)
	train, test := t.split(ds.Examples)

	raws := make([][]float64, len(train))
	scaled := make([][]float64, len(train))
	y := make([]int, len(train))
	for i, ex := range train {
		raws[i] = features.Raw(schema, ex.Inputs)
		scaled[i] = raws[i][:schema.ScaledLen()]
		y[i] = ex.Label
	}
	scaler, err := features.FitMinMax(scaled)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	asm, err := features.NewAssembler(schema, scaler, t.weights)
	if err != nil {
		return nil, err
	}
	x, err := transform(asm, raws)
	if err != nil {
		return nil, err
	}

	m, err := classifier.FitLogistic(ctx, x, y, t.fitOpts...)
	if err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	acc, err := classifier.Accuracy(m, x, y)
	if err != nil {
		return nil, err
	}
	info := artifacts.TrainingInfo{TrainedAt: t.now(), Examples: len(x), Accuracy: acc}

	if len(test) > 0 {
		testRaws := make([][]float64, len(test))
		testY := make([]int, len(test))
		for i, ex := range test {
			testRaws[i] = features.Raw(schema, ex.Inputs)
			testY[i] = ex.Label
		}
		tx, err := transform(asm, testRaws)
		if err != nil {
			return nil, err
		}
		if info.HoldoutAccuracy, err = classifier.Accuracy(m, tx, testY); err != nil {
			return nil, err
		}
		info.HoldoutExamples = len(tx)
	}
	metrics.RecordTrainingExamples(len(x))

	b, err := artifacts.NewBundle(ds.Vocabulary, scaler, m, t.weights, t.settings(), info)
	if err != nil {
		return nil, err
	}
	t.log.Info(ctx, "model trained",
		logger.Int("examples", len(x)),
		logger.Int("features", schema.Len()),
		logger.Float64("train_accuracy", acc),
		logger.Int("holdout_examples", info.HoldoutExamples),
		logger.Float64("holdout_accuracy", info.HoldoutAccuracy),
	)
	return b, nil
}

// settings are the Builder knobs baked into the bundle.
func (t *Trainer) settings() artifacts.Settings {
	return artifacts.Settings{
		LineupSize:    t.builder.LineupSize(),
		RecentWindow:  t.builder.Calculator().RecentWindow(),
		InjuryOutOnly: t.outOnly,
	}
}

// split shuffles a copy of examples and carves off the holdout. At least
// one example always stays in the training split.
func (t *Trainer) split(examples []Example) (train, test []Example) {
	n := int(math.Round(float64(len(examples)) * t.holdout))
	if n <= 0 {
		return examples, nil
	}
	if n >= len(examples) {
		n = len(examples) - 1
	}
	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	r := rand.New(rand.NewPCG(t.seed, t.seed))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[n:], shuffled[:n]
}

func transform(asm *features.Assembler, raws [][]float64) ([][]float64, error) {
	x := make([][]float64, len(raws))
	for i, raw := range raws {
		vec, err := asm.Transform(raw)
		if err != nil {
			return nil, err
		}
		x[i] = vec.Values
	}
	return x, nil
}

// Train is Dataset followed by Fit.
func (t *Trainer) Train(ctx context.Context, corpus Corpus) (*artifacts.Bundle, error) {
	ds, err := t.Dataset(ctx, corpus)
	if err != nil {
		return nil, err
	}
	return t.Fit(ctx, ds)
}
