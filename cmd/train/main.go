// Command train fits the win-probability model on the historical corpus and
// writes the artifact bundle the server loads at startup.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/bootstrap"
	"github.com/okian/matchup/internal/config"
	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/internal/domain/stats"
	"github.com/okian/matchup/internal/training"
	"github.com/okian/matchup/pkg/logger"
)

func main() {
	var (
		out      = flag.String("out", "", "Artifacts directory (overrides artifacts_dir)")
		minPrior = flag.Int("min-prior-games", 0, "Skip games where either team has fewer earlier games")
		holdout  = flag.Float64("holdout", -1, "Fraction of games held out for evaluation (overrides train_holdout)")
		epochs   = flag.Int("epochs", 0, "Gradient descent epochs (overrides train_epochs)")
		verbose  = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Get().Error(ctx, "failed to load config", logger.Error(err))
		os.Exit(1)
	}
	applyFlags(cfg, *out, *holdout, *epochs)
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, *minPrior, logger.Named("train")); err != nil {
		logger.Get().Error(ctx, "training failed", logger.Error(err))
		stop()
		_ = logger.Sync()
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, out string, holdout float64, epochs int) {
	if out != "" {
		cfg.ArtifactsDir = out
	}
	if holdout >= 0 && holdout < 1 {
		cfg.TrainHoldout = holdout
	}
	if epochs > 0 {
		cfg.TrainEpochs = epochs
	}
}

func run(ctx context.Context, cfg *config.Config, minPrior int, log logger.Logger) error {
	corpus, err := bootstrap.LoadCorpus(ctx, cfg, log)
	if err != nil {
		return err
	}

	tr := training.New(
		training.WithBuilder(features.NewBuilder(
			features.WithCalculator(stats.NewCalculator(stats.WithRecentWindow(cfg.RecentWindow))),
			features.WithLineupSize(cfg.LineupSize),
		)),
		training.WithWorkers(cfg.TrainWorkers),
		training.WithMinPriorGames(minPrior),
		training.WithHoldout(cfg.TrainHoldout, cfg.TrainSeed),
		training.WithWeights(features.WeightsFromSeason(cfg.SeasonWeight)),
		training.WithOutOnly(cfg.InjuryOutOnly),
		training.WithFitOptions(
			classifier.WithEpochs(cfg.TrainEpochs),
			classifier.WithLearningRate(cfg.TrainLearningRate),
			classifier.WithL2(cfg.TrainL2),
		),
		training.WithLogger(log),
	)
	b, err := tr.Train(ctx, corpus)
	if err != nil {
		return err
	}
	if err := artifacts.Save(cfg.ArtifactsDir, b); err != nil {
		return err
	}
	log.Info(ctx, "artifacts written",
		logger.String("dir", cfg.ArtifactsDir),
		logger.Int("feature_width", b.Manifest.FeatureWidth),
		logger.Int("vocabulary_size", b.Manifest.VocabularySize),
	)
	return nil
}
