package service_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/okian/matchup/internal/adapters/artifacts"
	"github.com/okian/matchup/internal/adapters/repository"
	service "github.com/okian/matchup/internal/app"
	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var season = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// history gives team one game every other day against rotating opponents
// that never include BOS or LAL, so the two never meet.
func history(team, results string) []model.GameRecord {
	opponents := []string{"NYK", "MIA", "DEN"}
	out := make([]model.GameRecord, 0, len(results))
	for i, r := range results {
		res := model.Loss
		pts, allowed := 95.0, 105.0
		if r == 'W' {
			res = model.Win
			pts, allowed = 110, 100
		}
		out = append(out, model.GameRecord{
			GameID:        fmt.Sprintf("%s-%02d", team, i),
			Date:          season.AddDate(0, 0, 2*i),
			Team:          team,
			Opponent:      opponents[i%len(opponents)],
			IsHome:        i%2 == 0,
			PointsScored:  pts,
			PointsAllowed: allowed,
			FGPct:         0.46,
			FG3Pct:        0.35,
			FTPct:         0.78,
			OffRebounds:   10,
			DefRebounds:   33,
			Turnovers:     13,
			Assists:       25,
			Result:        res,
		})
	}
	return out
}

// lakersBoxScores has LeBron James playing every LAL game but the last.
func lakersBoxScores(games []model.GameRecord) []model.PlayerGameRecord {
	out := make([]model.PlayerGameRecord, 0, len(games))
	for i, g := range games {
		minutes := 34.0
		if i == len(games)-1 {
			minutes = 0
		}
		out = append(out, model.PlayerGameRecord{
			GameID: g.GameID, Date: g.Date, Player: "LeBron James", Team: g.Team, Opponent: g.Opponent,
			Minutes: minutes, Points: 26, Rebounds: 8, Assists: 8, FGPct: 0.52,
		})
	}
	return out
}

func corpus() *repository.MemoryStore {
	bos := history("BOS", "WWLWWWLWWW") // 8-2
	lal := history("LAL", "LWLWLLWLWL") // 4-6
	s, err := repository.NewMemoryStore(context.Background(), append(bos, lal...), lakersBoxScores(lal))
	So(err, ShouldBeNil)
	return s
}

type fakeInjuries struct {
	state  model.InjuryState
	source model.InjurySource
	err    error
}

func (f fakeInjuries) Current(context.Context) (model.InjuryState, model.InjurySource, error) {
	return f.state, f.source, f.err
}

func started(opts ...service.Option) *service.Service {
	asOf := season.AddDate(0, 1, 0)
	base := []service.Option{
		service.WithCorpus(corpus()),
		service.WithClock(func() time.Time { return asOf }),
	}
	svc := service.New(append(base, opts...)...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a service without a corpus", t, func() {
		svc := service.New()

		Convey("Then start fails as a configuration error", func() {
			So(errors.Is(svc.Start(context.Background()), model.ErrConfiguration), ShouldBeTrue)
		})

		Convey("Then calls before start are refused", func() {
			_, err := svc.Predict(context.Background(), service.Request{Team1: "BOS", Team2: "LAL"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})

	Convey("Given weights that do not sum to one", t, func() {
		svc := service.New(service.WithCorpus(corpus()), service.WithWeights(features.Weights{Season: 0.7, HeadToHead: 0.2}))
		So(errors.Is(svc.Start(context.Background()), model.ErrConfiguration), ShouldBeTrue)
	})

	Convey("Given a started service", t, func() {
		svc := started()
		defer svc.Stop()

		Convey("Then starting again is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
		})

		Convey("Then stats describe the corpus in rule-based mode", func() {
			st, err := svc.GetStats(context.Background())
			So(err, ShouldBeNil)
			So(st.Teams, ShouldEqual, 2)
			So(st.Games, ShouldEqual, 20)
			So(st.PlayerRows, ShouldEqual, 10)
			So(st.ModelType, ShouldEqual, model.ModelRuleBased)
			So(st.TrainedAt, ShouldBeNil)
		})
	})
}

func TestService_PredictRuleBased(t *testing.T) {
	Convey("Given two teams with ten games each and no model", t, func() {
		svc := started()
		defer svc.Stop()
		ctx := context.Background()

		Convey("When predicting with an empty injury state", func() {
			svc := started(service.WithInjuryProvider(fakeInjuries{state: model.InjuryState{}, source: model.InjuryLive}))
			p, err := svc.Predict(ctx, service.Request{Team1: "lal", Team2: "BOS"})

			Convey("Then the higher win pct wins with confidence from the gap", func() {
				So(err, ShouldBeNil)
				So(p.ModelType, ShouldEqual, model.ModelRuleBased)
				So(p.Winner, ShouldEqual, "BOS")
				So(p.Confidence, ShouldEqual, 40.0)
				So(p.Team1.Snapshot.WinPct, ShouldEqual, 0.4)
				So(p.Team2.Snapshot.WinPct, ShouldEqual, 0.8)
				So(p.HeadToHead.Total, ShouldEqual, 0)
				So(p.HeadToHead.TeamAWinPct, ShouldEqual, 0.5)
				So(p.InjurySource, ShouldEqual, model.InjuryLive)
				So(p.Team1.MissingStarters, ShouldBeEmpty)
				So(p.ID, ShouldNotBeBlank)
			})
		})

		Convey("When team2 is flagged back-to-back", func() {
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL", Team2BackToBack: true})

			Convey("Then the flag overrides the computed rest", func() {
				So(err, ShouldBeNil)
				So(p.Team2.Snapshot.BackToBack, ShouldBeTrue)
				So(p.Team2.Snapshot.DaysRest, ShouldEqual, 1)
				So(p.Team1.Snapshot.BackToBack, ShouldBeFalse)
			})
		})

		Convey("When the teams are identical", func() {
			_, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: " bos "})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a team is missing", func() {
			_, err := svc.Predict(ctx, service.Request{Team1: "", Team2: "BOS"})
			So(errors.Is(err, model.ErrValidation), ShouldBeTrue)
		})

		Convey("When a team is not in the corpus", func() {
			_, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "SEA"})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("When predicting as of the season start", func() {
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL", AsOf: season})

			Convey("Then both teams use default snapshots and team1 wins the tie", func() {
				So(err, ShouldBeNil)
				So(p.Winner, ShouldEqual, "BOS")
				So(p.Confidence, ShouldEqual, 0)
				So(p.Team1.Snapshot.Games, ShouldEqual, 0)
			})
		})
	})
}

func TestService_Injuries(t *testing.T) {
	Convey("Given LeBron James in the Lakers lineup", t, func() {
		ctx := context.Background()

		Convey("When the live state lists him out", func() {
			svc := started(service.WithInjuryProvider(fakeInjuries{
				state:  model.InjuryState{"LAL": {{Player: "LeBron James", Status: "Out"}}},
				source: model.InjuryCache,
			}))
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL"})

			Convey("Then he is reported missing from the live state", func() {
				So(err, ShouldBeNil)
				So(p.InjurySource, ShouldEqual, model.InjuryCache)
				So(p.Team2.MissingStarters, ShouldResemble, []string{"LeBron James"})
			})
		})

		Convey("When only out players count and he is questionable", func() {
			svc := started(
				service.WithOutOnly(true),
				service.WithInjuryProvider(fakeInjuries{
					state:  model.InjuryState{"LAL": {{Player: "LeBron James", Status: "Questionable"}}},
					source: model.InjuryLive,
				}),
			)
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL"})
			So(err, ShouldBeNil)
			So(p.Team2.MissingStarters, ShouldBeEmpty)
		})

		Convey("When the injury source is down", func() {
			svc := started(service.WithInjuryProvider(fakeInjuries{err: model.ErrUpstreamUnavailable}))
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL"})

			Convey("Then the prediction degrades to the last game's absentees", func() {
				So(err, ShouldBeNil)
				So(p.InjurySource, ShouldEqual, model.InjuryHistorical)
				So(p.Team2.MissingStarters, ShouldResemble, []string{"LeBron James"})
				So(p.Winner, ShouldEqual, "BOS")
			})
		})
	})
}

// winPctBundle weighs only the two win_pct columns.
func winPctBundle(w features.Weights, st artifacts.Settings) *artifacts.Bundle {
	vocab := features.NewVocabulary([]string{"LeBron James"})
	schema := features.NewSchema(vocab)
	scaler := &features.MinMaxScaler{Min: make([]float64, schema.ScaledLen()), Max: make([]float64, schema.ScaledLen())}
	for i := range scaler.Max {
		scaler.Max[i] = 1
	}
	m := &classifier.Logistic{Weights: make([]float64, schema.Len())}
	cols := schema.Columns()
	for i, c := range cols {
		switch c {
		case "t1_win_pct":
			m.Weights[i] = 10
		case "t2_win_pct":
			m.Weights[i] = -10
		}
	}
	b, err := artifacts.NewBundle(vocab, scaler, m, w, st, artifacts.TrainingInfo{TrainedAt: season, Examples: 10, Accuracy: 0.7})
	So(err, ShouldBeNil)
	return b
}

func TestService_PredictML(t *testing.T) {
	Convey("Given a service with a trained bundle", t, func() {
		svc := started(service.WithBundle(winPctBundle(features.DefaultWeights(), artifacts.DefaultSettings())))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When predicting from either side", func() {
			p1, err1 := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL"})
			p2, err2 := svc.Predict(ctx, service.Request{Team1: "LAL", Team2: "BOS"})

			Convey("Then the model picks the stronger team with its probability", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(p1.ModelType, ShouldEqual, model.ModelML)
				So(p1.Winner, ShouldEqual, "BOS")
				So(p2.Winner, ShouldEqual, "BOS")
				want := math.Round(1000/(1+math.Exp(-3.6))) / 10
				So(p1.Confidence, ShouldAlmostEqual, want, 1e-9)
				So(p1.SchemaVersion, ShouldEqual, features.SchemaVersion)
			})
		})

		Convey("Then stats report the bundle", func() {
			st, err := svc.GetStats(ctx)
			So(err, ShouldBeNil)
			So(st.ModelType, ShouldEqual, model.ModelML)
			So(st.FeatureWidth, ShouldEqual, 53)
			So(st.VocabularySize, ShouldEqual, 1)
			So(*st.TrainedAt, ShouldEqual, season)
		})
	})

	Convey("Given a bundle trained with other weights", t, func() {
		svc := service.New(
			service.WithCorpus(corpus()),
			service.WithBundle(winPctBundle(features.WeightsFromSeason(0.85), artifacts.DefaultSettings())),
		)

		Convey("Then the service refuses to start", func() {
			err := svc.Start(context.Background())
			So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
		})
	})

	Convey("Given a bundle trained with the default pipeline settings", t, func() {
		b := winPctBundle(features.DefaultWeights(), artifacts.DefaultSettings())

		Convey("When the service is configured with another lineup size and window", func() {
			svc := service.New(
				service.WithCorpus(corpus()),
				service.WithBundle(b),
				service.WithLineupSize(1),
				service.WithRecentWindow(20),
			)
			err := svc.Start(context.Background())

			Convey("Then the service refuses to start", func() {
				So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(err, artifacts.ErrMismatch), ShouldBeTrue)
			})
		})

		Convey("When only the injury selection differs", func() {
			svc := service.New(
				service.WithCorpus(corpus()),
				service.WithBundle(b),
				service.WithOutOnly(true),
			)
			So(errors.Is(svc.Start(context.Background()), artifacts.ErrMismatch), ShouldBeTrue)
		})

		Convey("When the settings match", func() {
			svc := service.New(
				service.WithCorpus(corpus()),
				service.WithBundle(b),
				service.WithLineupSize(5),
				service.WithRecentWindow(5),
			)
			So(svc.Start(context.Background()), ShouldBeNil)
			svc.Stop()
		})
	})
}

func TestService_Reads(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := started()
		defer svc.Stop()
		ctx := context.Background()

		Convey("Then teams are listed", func() {
			teams, err := svc.Teams(ctx)
			So(err, ShouldBeNil)
			So(teams, ShouldResemble, []string{"BOS", "LAL"})
		})

		Convey("Then snapshots honour the as-of date", func() {
			s, err := svc.Snapshot(ctx, "bos", season.AddDate(0, 0, 5))
			So(err, ShouldBeNil)
			So(s.Games, ShouldEqual, 3)
			So(s.Streak, ShouldEqual, -1)

			_, err = svc.Snapshot(ctx, "SEA", time.Time{})
			So(errors.Is(err, model.ErrNotFound), ShouldBeTrue)
		})

		Convey("Then head-to-head is empty for teams that never met", func() {
			h, err := svc.HeadToHead(ctx, "BOS", "LAL")
			So(err, ShouldBeNil)
			So(h.Total, ShouldEqual, 0)
			So(h.TeamAWinPct, ShouldEqual, 0.5)
		})
	})
}

func TestService_PredictAsOf(t *testing.T) {
	Convey("Given teams whose only meeting is after the requested date", t, func() {
		games := append(history("BOS", "WWLWW"), history("LAL", "LWLWL")...)
		meeting := season.AddDate(0, 0, 30)
		games = append(games,
			model.GameRecord{GameID: "BOS-LAL", Date: meeting, Team: "BOS", Opponent: "LAL", IsHome: true,
				PointsScored: 112, PointsAllowed: 101, Result: model.Win},
			model.GameRecord{GameID: "BOS-LAL", Date: meeting, Team: "LAL", Opponent: "BOS",
				PointsScored: 101, PointsAllowed: 112, Result: model.Loss},
		)
		store, err := repository.NewMemoryStore(context.Background(), games, nil)
		So(err, ShouldBeNil)
		svc := service.New(
			service.WithCorpus(store),
			service.WithClock(func() time.Time { return season.AddDate(0, 2, 0) }),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When predicting as of a date before the meeting", func() {
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL", AsOf: season.AddDate(0, 0, 5)})

			Convey("Then the later meeting is not counted", func() {
				So(err, ShouldBeNil)
				So(p.HeadToHead.Total, ShouldEqual, 0)
				So(p.HeadToHead.TeamAWinPct, ShouldEqual, 0.5)
			})
		})

		Convey("When predicting as of a date after the meeting", func() {
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL", AsOf: meeting.AddDate(0, 0, 1)})
			So(err, ShouldBeNil)
			So(p.HeadToHead.Total, ShouldEqual, 1)
			So(p.HeadToHead.TeamAWins, ShouldEqual, 1)
		})

		Convey("When predicting for today", func() {
			p, err := svc.Predict(ctx, service.Request{Team1: "BOS", Team2: "LAL"})
			So(err, ShouldBeNil)
			So(p.HeadToHead.Total, ShouldEqual, 1)
		})
	})
}
