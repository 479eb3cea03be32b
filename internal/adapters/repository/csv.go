package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/matchup/internal/domain/model"
)

// defaultDateLayouts covers ISO dates, nba_api timestamps and box-score style dates.
var defaultDateLayouts = []string{ //nolint:gochecknoglobals // read-only parse table
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"Jan 02, 2006",
	"01/02/2006",
}

// CSVLoader reads league game logs (one row per team per game) and player game
// logs using the nba_api column names.
type CSVLoader struct {
	gamesPath   string
	playersPath string
	dateLayouts []string
}

// NewCSVLoader creates a loader for the team game log at gamesPath.
func NewCSVLoader(gamesPath string, opts ...CSVOption) *CSVLoader {
	l := &CSVLoader{
		gamesPath:   gamesPath,
		dateLayouts: defaultDateLayouts,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load implements Loader. The two files are read concurrently.
func (l *CSVLoader) Load(ctx context.Context) ([]model.GameRecord, []model.PlayerGameRecord, error) {
	var (
		games   []model.GameRecord
		players []model.PlayerGameRecord
	)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, err := l.readFile(ctx, l.gamesPath)
		if err != nil {
			return fmt.Errorf("games: %w", err)
		}
		games, err = l.parseGames(rows)
		if err != nil {
			return fmt.Errorf("games: %w", err)
		}
		return nil
	})

	if l.playersPath != "" {
		g.Go(func() error {
			rows, err := l.readFile(ctx, l.playersPath)
			if err != nil {
				return fmt.Errorf("players: %w", err)
			}
			players, err = l.parsePlayers(rows)
			if err != nil {
				return fmt.Errorf("players: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return games, players, nil
}

// table is a parsed CSV file with a header index.
type table struct {
	header map[string]int
	rows   [][]string
}

func (t table) get(row []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t table) has(col string) bool {
	_, ok := t.header[col]
	return ok
}

func (l *CSVLoader) readFile(ctx context.Context, path string) (table, error) {
	f, err := os.Open(path)
	if err != nil {
		return table{}, err
	}
	defer func() { _ = f.Close() }()
	return readTable(ctx, f)
}

func readTable(ctx context.Context, r io.Reader) (table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return table{}, fmt.Errorf("read header: %w", err)
	}
	t := table{header: make(map[string]int, len(head))}
	for i, h := range head {
		t.header[strings.ToUpper(strings.TrimSpace(h))] = i
	}
	for {
		if err := ctx.Err(); err != nil {
			return table{}, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return table{}, err
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func (l *CSVLoader) parseGames(t table) ([]model.GameRecord, error) {
	for _, col := range []string{"GAME_ID", "GAME_DATE", "TEAM_ABBREVIATION"} {
		if !t.has(col) {
			return nil, fmt.Errorf("missing column %s: %w", col, ErrInvalidRecord)
		}
	}
	out := make([]model.GameRecord, 0, len(t.rows))
	for i, row := range t.rows {
		date, err := l.parseDate(t.get(row, "GAME_DATE"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		team := t.get(row, "TEAM_ABBREVIATION")
		opponent, home := parseMatchup(t.get(row, "MATCHUP"))
		if v := t.get(row, "OPPONENT"); v != "" {
			opponent = v
		}
		if v := t.get(row, "IS_HOME"); v != "" {
			home = parseBool(v)
		}
		result, _ := model.ParseResult(t.get(row, "WL"))
		out = append(out, model.GameRecord{
			GameID:        t.get(row, "GAME_ID"),
			Date:          date,
			Team:          team,
			Opponent:      opponent,
			IsHome:        home,
			PointsScored:  parseStat(t.get(row, "PTS")),
			PointsAllowed: parseStat(t.get(row, "PTS_ALLOWED")),
			FGPct:         parseStat(t.get(row, "FG_PCT")),
			FG3Pct:        parseStat(t.get(row, "FG3_PCT")),
			FTPct:         parseStat(t.get(row, "FT_PCT")),
			OffRebounds:   parseStat(t.get(row, "OREB")),
			DefRebounds:   parseStat(t.get(row, "DREB")),
			Turnovers:     parseStat(t.get(row, "TOV")),
			Assists:       parseStat(t.get(row, "AST")),
			Result:        result,
		})
	}
	return out, nil
}

func (l *CSVLoader) parsePlayers(t table) ([]model.PlayerGameRecord, error) {
	for _, col := range []string{"GAME_ID", "GAME_DATE", "PLAYER_NAME", "TEAM_ABBREVIATION"} {
		if !t.has(col) {
			return nil, fmt.Errorf("missing column %s: %w", col, ErrInvalidRecord)
		}
	}
	out := make([]model.PlayerGameRecord, 0, len(t.rows))
	for i, row := range t.rows {
		date, err := l.parseDate(t.get(row, "GAME_DATE"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		opponent, _ := parseMatchup(t.get(row, "MATCHUP"))
		if v := t.get(row, "OPPONENT"); v != "" {
			opponent = v
		}
		out = append(out, model.PlayerGameRecord{
			GameID:   t.get(row, "GAME_ID"),
			Date:     date,
			Player:   t.get(row, "PLAYER_NAME"),
			Team:     t.get(row, "TEAM_ABBREVIATION"),
			Opponent: opponent,
			Minutes:  ParseMinutes(t.get(row, "MIN")),
			Points:   parseStat(t.get(row, "PTS")),
			Rebounds: parseStat(t.get(row, "REB")),
			Assists:  parseStat(t.get(row, "AST")),
			FGPct:    parseStat(t.get(row, "FG_PCT")),
		})
	}
	return out, nil
}

func (l *CSVLoader) parseDate(s string) (time.Time, error) {
	for _, layout := range l.dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q: %w", s, ErrInvalidRecord)
}

// parseMatchup reads "LAL vs. BOS" (home) or "LAL @ BOS" (away).
func parseMatchup(s string) (opponent string, home bool) {
	if s == "" {
		return "", false
	}
	if i := strings.Index(s, "@"); i >= 0 {
		return strings.TrimSpace(s[i+1:]), false
	}
	lower := strings.ToLower(s)
	for _, sep := range []string{"vs.", "vs"} {
		if i := strings.Index(lower, sep); i >= 0 {
			return strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return "", false
}

// parseStat returns NaN for blank or malformed cells.
func parseStat(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseMinutes accepts "MM:SS", "MM:SS.s" or a decimal minute count.
// Blank, "None" and unparseable values yield NaN.
func ParseMinutes(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return math.NaN()
	}
	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err1 := strconv.ParseFloat(mm, 64)
		sec, err2 := strconv.ParseFloat(ss, 64)
		if err1 != nil || err2 != nil {
			return math.NaN()
		}
		return m + sec/60
	}
	return parseStat(s)
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return s == "1" || strings.EqualFold(s, "home") || strings.EqualFold(s, "yes")
	}
	return b
}
