package repository_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/matchup/internal/adapters/repository"
	"github.com/okian/matchup/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var nan = math.NaN()

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewMemoryStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given two rows of the same game with loose formatting", t, func() {
		late := time.Date(2024, time.March, 2, 19, 30, 0, 0, time.UTC)
		games := []model.GameRecord{
			{GameID: " g2 ", Date: late, Team: "lal", Opponent: " bos", PointsScored: 99, PointsAllowed: nan},
			{GameID: "g2", Date: late, Team: "BOS", Opponent: "LAL", IsHome: true, PointsScored: 104, PointsAllowed: nan},
			{GameID: "g1", Date: day(2024, time.March, 1), Team: "BOS", Opponent: "NYK", PointsScored: 90, PointsAllowed: nan, Result: model.Loss},
		}
		players := []model.PlayerGameRecord{
			{GameID: "g2", Date: late, Player: "LeBron  James", Team: "lal", Opponent: "BOS", Minutes: 35},
			{GameID: "g1", Date: day(2024, time.March, 1), Player: "Jayson Tatum", Team: "BOS", Opponent: "NYK", Minutes: 38},
		}
		s, err := repository.NewMemoryStore(ctx, games, players)
		So(err, ShouldBeNil)

		Convey("Then codes, ids and dates are normalized", func() {
			So(s.Teams(), ShouldResemble, []string{"BOS", "LAL"})
			So(s.HasTeam("lal"), ShouldBeTrue)
			So(s.HasTeam("NYK"), ShouldBeFalse)
			rows := s.GameRows("g2")
			So(len(rows), ShouldEqual, 2)
			So(rows[0].Date, ShouldEqual, day(2024, time.March, 2))
		})

		Convey("Then team games come back in date order", func() {
			bos := s.TeamGames("BOS")
			So(len(bos), ShouldEqual, 2)
			So(bos[0].GameID, ShouldEqual, "g1")
			So(bos[1].GameID, ShouldEqual, "g2")
			So(s.GameIDs(), ShouldResemble, []string{"g1", "g2"})
		})

		Convey("Then points allowed and results are derived from the opposing row", func() {
			bos := s.TeamGames("BOS")
			So(bos[1].PointsAllowed, ShouldEqual, 99)
			So(bos[1].Result, ShouldEqual, model.Win)
			So(s.TeamGames("LAL")[0].Result, ShouldEqual, model.Loss)
		})

		Convey("Then a game without an opposing row keeps NaN and its given result", func() {
			g1 := s.TeamGames("BOS")[0]
			So(math.IsNaN(g1.PointsAllowed), ShouldBeTrue)
			So(g1.Result, ShouldEqual, model.Loss)
			_, ok := s.OpponentRecord("g1", "BOS")
			So(ok, ShouldBeFalse)
		})

		Convey("Then player rows are looked up by normalized name", func() {
			So(len(s.PlayerGames("lebron james")), ShouldEqual, 1)
			p, ok := s.PlayerGame("g2", "LEBRON JAMES")
			So(ok, ShouldBeTrue)
			So(p.Team, ShouldEqual, "LAL")
			So(len(s.TeamPlayerGames("BOS")), ShouldEqual, 1)
			ng, np := s.Count(ctx)
			So(ng, ShouldEqual, 3)
			So(np, ShouldEqual, 2)
		})
	})

	Convey("Given invalid rows", t, func() {
		d := day(2024, time.January, 1)

		Convey("When a team plays itself", func() {
			_, err := repository.NewMemoryStore(ctx, []model.GameRecord{{GameID: "g", Date: d, Team: "BOS", Opponent: "bos"}}, nil)
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When the date is missing", func() {
			_, err := repository.NewMemoryStore(ctx, []model.GameRecord{{GameID: "g", Team: "BOS", Opponent: "LAL"}}, nil)
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When a team row repeats", func() {
			row := model.GameRecord{GameID: "g", Date: d, Team: "BOS", Opponent: "LAL"}
			_, err := repository.NewMemoryStore(ctx, []model.GameRecord{row, row}, nil)
			So(errors.Is(err, repository.ErrDuplicateRecord), ShouldBeTrue)
		})

		Convey("When a player row repeats", func() {
			p := model.PlayerGameRecord{GameID: "g", Date: d, Player: "A B", Team: "BOS", Opponent: "LAL"}
			_, err := repository.NewMemoryStore(ctx, nil, []model.PlayerGameRecord{p, p})
			So(errors.Is(err, repository.ErrDuplicateRecord), ShouldBeTrue)
		})

		Convey("When a player row has no name", func() {
			_, err := repository.NewMemoryStore(ctx, nil, []model.PlayerGameRecord{{GameID: "g", Date: d, Player: "  ", Team: "BOS"}})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})

		Convey("When a player row has no opponent and no game row names one", func() {
			_, err := repository.NewMemoryStore(ctx, nil, []model.PlayerGameRecord{{GameID: "g", Date: d, Player: "A B", Team: "BOS"}})
			So(errors.Is(err, repository.ErrInvalidRecord), ShouldBeTrue)
		})
	})

	Convey("Given player rows without an opponent", t, func() {
		var games []model.GameRecord
		var players []model.PlayerGameRecord
		for i, opp := range []string{"BOS", "MIA", "BOS"} {
			id := string(rune('a' + i))
			d := day(2024, time.February, 1+2*i)
			games = append(games, model.GameRecord{GameID: id, Date: d, Team: "LAL", Opponent: opp, PointsScored: 100, PointsAllowed: 90})
			players = append(players, model.PlayerGameRecord{GameID: id, Date: d, Player: "A B", Team: "lal", Minutes: 30, Points: 20})
		}
		// Only the opposing row is present for this game.
		games = append(games, model.GameRecord{GameID: "d", Date: day(2024, time.February, 9), Team: "BOS", Opponent: "LAL", PointsScored: 95, PointsAllowed: 99})
		players = append(players, model.PlayerGameRecord{GameID: "d", Date: day(2024, time.February, 9), Player: "A B", Team: "LAL", Minutes: 31})

		s, err := repository.NewMemoryStore(ctx, games, players)
		So(err, ShouldBeNil)

		Convey("Then the opponent is taken from the game rows", func() {
			var vsBOS int
			for _, p := range s.PlayerGames("A B") {
				So(p.Opponent, ShouldNotBeEmpty)
				if p.Opponent == "BOS" {
					vsBOS++
				}
			}
			So(vsBOS, ShouldEqual, 3)
			p, ok := s.PlayerGame("b", "A B")
			So(ok, ShouldBeTrue)
			So(p.Opponent, ShouldEqual, "MIA")
		})
	})
}
