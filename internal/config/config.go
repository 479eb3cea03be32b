// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Validate before use; Load does it for you.
// - Errors wrap ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// Config contains process configuration for the API server and the trainer.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AllowedOrigins lists CORS origins for the browser client.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// GamesPath and PlayersPath point at nba_api style CSV game logs.
	GamesPath   string `koanf:"games_path"`
	PlayersPath string `koanf:"players_path"`

	// PostgresURL, when set, loads the corpus from Postgres instead of CSV.
	PostgresURL  string `koanf:"postgres_url"`
	GamesTable   string `koanf:"games_table"`
	PlayersTable string `koanf:"players_table"`

	// ArtifactsDir holds the trained bundle. A missing directory means
	// rule-based predictions.
	ArtifactsDir string `koanf:"artifacts_dir"`

	// InjurySources are tried in order. Empty disables live injuries.
	InjurySources  []string      `koanf:"injury_sources"`
	InjuryTimeout  time.Duration `koanf:"injury_timeout"`
	InjuryCacheTTL time.Duration `koanf:"injury_cache_ttl"`
	// InjuryOutOnly counts only players listed as "Out" as missing.
	InjuryOutOnly bool `koanf:"injury_out_only"`

	// RedisAddr, when set, shares the injury cache through Redis.
	RedisAddr string `koanf:"redis_addr"`

	// SeasonWeight is w_season; the head-to-head weight is 1 - SeasonWeight.
	SeasonWeight float64 `koanf:"season_weight"`

	LineupSize   int `koanf:"lineup_size"`
	RecentWindow int `koanf:"recent_window"`

	// Training knobs used by cmd/train.
	TrainWorkers      int     `koanf:"train_workers"`
	TrainEpochs       int     `koanf:"train_epochs"`
	TrainLearningRate float64 `koanf:"train_learning_rate"`
	TrainL2           float64 `koanf:"train_l2"`

	// TrainHoldout is the fraction of games kept out of the fit for
	// evaluation; TrainSeed fixes the split.
	TrainHoldout float64 `koanf:"train_holdout"`
	TrainSeed    uint64  `koanf:"train_seed"`
}

// New creates a Config with defaults. The context is reserved for loaders
// that need it and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":8080",
		AllowedOrigins:    []string{"*"},
		ShutdownTimeout:   10 * time.Second,
		GamesPath:         "data/team_game_logs.csv",
		PlayersPath:       "data/player_game_logs.csv",
		GamesTable:        "team_game_logs",
		PlayersTable:      "player_game_logs",
		ArtifactsDir:      "artifacts",
		InjuryTimeout:     3 * time.Second,
		InjuryCacheTTL:    6 * time.Hour,
		SeasonWeight:      0.9,
		LineupSize:        5,
		RecentWindow:      5,
		TrainWorkers:      runtime.NumCPU(),
		TrainEpochs:       400,
		TrainLearningRate: 0.5,
		TrainL2:           0.001,
		TrainHoldout:      0.2,
		TrainSeed:         42,
	}
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.GamesPath == "" && c.PostgresURL == "":
		return fmt.Errorf("%w: one of games_path or postgres_url is required", ErrInvalidConfig)
	case c.SeasonWeight <= 0 || c.SeasonWeight > 1:
		return fmt.Errorf("%w: season_weight must be in (0,1], got %v", ErrInvalidConfig, c.SeasonWeight)
	case c.InjuryTimeout <= 0:
		return fmt.Errorf("%w: injury_timeout must be positive", ErrInvalidConfig)
	case c.InjuryCacheTTL <= 0:
		return fmt.Errorf("%w: injury_cache_ttl must be positive", ErrInvalidConfig)
	case c.ShutdownTimeout <= 0:
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	case c.LineupSize <= 0:
		return fmt.Errorf("%w: lineup_size must be positive", ErrInvalidConfig)
	case c.RecentWindow <= 0:
		return fmt.Errorf("%w: recent_window must be positive", ErrInvalidConfig)
	case c.TrainHoldout < 0 || c.TrainHoldout >= 1:
		return fmt.Errorf("%w: train_holdout must be in [0,1), got %v", ErrInvalidConfig, c.TrainHoldout)
	case c.TrainWorkers <= 0 || c.TrainEpochs <= 0 || c.TrainLearningRate <= 0 || c.TrainL2 < 0:
		return fmt.Errorf("%w: training settings out of range", ErrInvalidConfig)
	}
	return nil
}
