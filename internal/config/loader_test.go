package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/matchup/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.ArtifactsDir, convey.ShouldEqual, "artifacts")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHUP_ADDR", ":9090")
			_ = os.Setenv("MATCHUP_SEASON_WEIGHT", "0.85")
			_ = os.Setenv("MATCHUP_INJURY_TIMEOUT", "750ms")
			_ = os.Setenv("MATCHUP_INJURY_OUT_ONLY", "true")
			_ = os.Setenv("MATCHUP_INJURY_SOURCES", "http://a.example/injuries,http://b.example/injuries")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SeasonWeight, convey.ShouldEqual, 0.85)
				convey.So(cfg.InjuryTimeout, convey.ShouldEqual, 750*time.Millisecond)
				convey.So(cfg.InjuryOutOnly, convey.ShouldBeTrue)
				convey.So(cfg.InjurySources, convey.ShouldResemble, []string{"http://a.example/injuries", "http://b.example/injuries"})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := filepath.Join(t.TempDir(), "matchup.yaml")
			yamlContent := `
addr: ":7070"
games_path: /srv/nba/games.csv
lineup_size: 8
injury_cache_ttl: 2h
`
			convey.So(os.WriteFile(path, []byte(yamlContent), 0o600), convey.ShouldBeNil)
			_ = os.Setenv(config.EnvFile, path)
			_ = os.Setenv("MATCHUP_LINEUP_SIZE", "6")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.GamesPath, convey.ShouldEqual, "/srv/nba/games.csv")
				convey.So(cfg.LineupSize, convey.ShouldEqual, 6)
				convey.So(cfg.InjuryCacheTTL, convey.ShouldEqual, 2*time.Hour)
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv(config.EnvFile, filepath.Join(t.TempDir(), "absent.yaml"))
			_, err := config.Load(ctx)

			convey.Convey("Then a load error is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an override fails validation", func() {
			_ = os.Setenv("MATCHUP_SEASON_WEIGHT", "1.5")
			_, err := config.Load(ctx)

			convey.Convey("Then an invalid config error is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

// clearConfigEnvVars unsets every MATCHUP_ variable so branches do not leak
// into each other.
func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if key, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(key, config.EnvPrefix) {
			_ = os.Unsetenv(key)
		}
	}
}
