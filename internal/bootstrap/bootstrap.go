// Package bootstrap turns a Config into the collaborators the server and
// the trainer share: the corpus, the trained bundle and the injury provider.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/adapters/injury"
	"github.com/okian/matchup/internal/adapters/repository"
	service "github.com/okian/matchup/internal/app"
	"github.com/okian/matchup/internal/config"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/pkg/logger"
)

// An unreachable Redis at startup falls back to the in-process cache.
const (
	redisPingTimeout = 2 * time.Second
	redisRetention   = 7 * 24 * time.Hour
)

// LoadCorpus reads the corpus from Postgres when a URL is configured and
// from the CSV game logs otherwise.
func LoadCorpus(ctx context.Context, cfg *config.Config, log logger.Logger) (*repository.MemoryStore, error) {
	start := time.Now()
	var (
		loader repository.Loader
		source string
	)
	if cfg.PostgresURL != "" {
		pool, err := repository.OpenPostgres(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		defer pool.Close()
		loader = repository.NewPostgresLoader(pool, repository.WithTables(cfg.GamesTable, cfg.PlayersTable))
		source = "postgres"
	} else {
		loader = repository.NewCSVLoader(cfg.GamesPath, repository.WithPlayersPath(cfg.PlayersPath))
		source = cfg.GamesPath
	}

	games, players, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus from %s: %w", source, err)
	}
	store, err := repository.NewMemoryStore(ctx, games, players)
	if err != nil {
		return nil, err
	}
	n, p := store.Count(ctx)
	log.Info(ctx, "corpus loaded",
		logger.String("source", source),
		logger.Int("game_rows", n),
		logger.Int("player_rows", p),
		logger.Int("teams", len(store.Teams())),
		logger.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
	)
	return store, nil
}

// LoadBundle reads the trained bundle from dir. A directory without
// artifacts yields nil, which selects rule-based predictions. A present but
// inconsistent bundle is an error.
func LoadBundle(ctx context.Context, dir string, log logger.Logger) (*artifacts.Bundle, error) {
	b, err := artifacts.Load(dir)
	if errors.Is(err, artifacts.ErrNoArtifacts) {
		log.Info(ctx, "no trained artifacts, using rule-based predictions", logger.String("dir", dir))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "artifacts loaded",
		logger.String("dir", dir),
		logger.String("schema_version", b.Manifest.SchemaVersion),
		logger.Int("feature_width", b.Manifest.FeatureWidth),
		logger.Int("vocabulary_size", b.Manifest.VocabularySize),
	)
	return b, nil
}

// InjuryProvider builds the live injury provider. It returns nil when no
// sources are configured. The returned close func releases the Redis client
// and is always safe to call.
func InjuryProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (*injury.Provider, func()) {
	noop := func() {}
	if len(cfg.InjurySources) == 0 {
		log.Info(ctx, "no injury sources configured, using historical absences")
		return nil, noop
	}

	chain := make(injury.Chain, 0, len(cfg.InjurySources))
	for _, u := range cfg.InjurySources {
		chain = append(chain, injury.NewHTTPSource(u))
	}
	opts := []injury.ProviderOption{
		injury.WithTTL(cfg.InjuryCacheTTL),
		injury.WithTimeout(cfg.InjuryTimeout),
		injury.WithLogger(log),
	}

	closeFn := noop
	if cfg.RedisAddr != "" {
		pctx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		rdb, err := injury.ConnectRedis(pctx, cfg.RedisAddr)
		cancel()
		if err != nil {
			log.Warn(ctx, "redis unavailable, using in-process injury cache",
				logger.String("addr", cfg.RedisAddr), logger.Error(err))
		} else {
			opts = append(opts, injury.WithCache(injury.NewRedisCache(rdb, "", redisRetention)))
			closeFn = func() { _ = rdb.Close() }
		}
	}
	return injury.NewProvider(chain, opts...), closeFn
}

// ServiceOptions loads everything the prediction service needs from cfg.
// The returned close func must be called once the service is stopped.
func ServiceOptions(ctx context.Context, cfg *config.Config, log logger.Logger) ([]service.Option, func(), error) {
	store, err := LoadCorpus(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	bundle, err := LoadBundle(ctx, cfg.ArtifactsDir, log)
	if err != nil {
		return nil, nil, err
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithCorpus(store),
		service.WithBundle(bundle),
		service.WithWeights(features.WeightsFromSeason(cfg.SeasonWeight)),
		service.WithLineupSize(cfg.LineupSize),
		service.WithRecentWindow(cfg.RecentWindow),
		service.WithOutOnly(cfg.InjuryOutOnly),
	}
	provider, closeFn := InjuryProvider(ctx, cfg, log)
	if provider != nil {
		opts = append(opts, service.WithInjuryProvider(provider))
	}
	return opts, closeFn, nil
}
