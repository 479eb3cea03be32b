package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/okian/matchup/internal/domain/model"
)

// Querier is the subset of *pgxpool.Pool used by the PostgresLoader.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads the corpus from team_game_logs and player_game_logs.
type PostgresLoader struct {
	db           Querier
	gamesTable   string
	playersTable string
}

// NewPostgresLoader wraps an existing pool or connection.
func NewPostgresLoader(db Querier, opts ...PostgresOption) *PostgresLoader {
	l := &PostgresLoader{
		db:           db,
		gamesTable:   "team_game_logs",
		playersTable: "player_game_logs",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OpenPostgres creates a pgx pool for url and verifies it with a ping.
func OpenPostgres(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: open postgres: %w", ErrLoad, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping postgres: %w", ErrLoad, err)
	}
	return pool, nil
}

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context) ([]model.GameRecord, []model.PlayerGameRecord, error) {
	var (
		games   []model.GameRecord
		players []model.PlayerGameRecord
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		games, err = l.loadGames(ctx)
		return err
	})
	g.Go(func() (err error) {
		players, err = l.loadPlayers(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return games, players, nil
}

func (l *PostgresLoader) loadGames(ctx context.Context) ([]model.GameRecord, error) {
	rows, err := l.db.Query(ctx, `
		SELECT game_id, game_date, team, opponent, is_home,
		       pts, pts_allowed, fg_pct, fg3_pct, ft_pct,
		       oreb, dreb, tov, ast, COALESCE(wl, '')
		FROM `+pgx.Identifier{l.gamesTable}.Sanitize()+`
		ORDER BY game_date, game_id, team`)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []model.GameRecord
	for rows.Next() {
		var (
			g    model.GameRecord
			date time.Time
			wl   string
			home *bool
		)
		var pts, allowed, fg, fg3, ft, oreb, dreb, tov, ast *float64
		if err := rows.Scan(&g.GameID, &date, &g.Team, &g.Opponent, &home,
			&pts, &allowed, &fg, &fg3, &ft, &oreb, &dreb, &tov, &ast, &wl); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		g.Date = date
		g.IsHome = home != nil && *home
		g.PointsScored = nullable(pts)
		g.PointsAllowed = nullable(allowed)
		g.FGPct = nullable(fg)
		g.FG3Pct = nullable(fg3)
		g.FTPct = nullable(ft)
		g.OffRebounds = nullable(oreb)
		g.DefRebounds = nullable(dreb)
		g.Turnovers = nullable(tov)
		g.Assists = nullable(ast)
		g.Result, _ = model.ParseResult(wl)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (l *PostgresLoader) loadPlayers(ctx context.Context) ([]model.PlayerGameRecord, error) {
	rows, err := l.db.Query(ctx, `
		SELECT game_id, game_date, player_name, team, COALESCE(opponent, ''),
		       min, pts, reb, ast, fg_pct
		FROM `+pgx.Identifier{l.playersTable}.Sanitize()+`
		ORDER BY game_date, game_id`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var out []model.PlayerGameRecord
	for rows.Next() {
		var (
			p    model.PlayerGameRecord
			date time.Time
		)
		var mins, pts, reb, ast, fg *float64
		if err := rows.Scan(&p.GameID, &date, &p.Player, &p.Team, &p.Opponent,
			&mins, &pts, &reb, &ast, &fg); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		p.Date = date
		p.Minutes = nullable(mins)
		p.Points = nullable(pts)
		p.Rebounds = nullable(reb)
		p.Assists = nullable(ast)
		p.FGPct = nullable(fg)
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
