package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/metrics"
)

// MemoryStore is the in-memory Store. Rows are validated and normalized once
// in NewMemoryStore and never mutated afterwards, so no locking is needed.
type MemoryStore struct {
	games   []model.GameRecord
	byTeam  map[string][]int
	byGame  map[string][]int
	gameIDs []string

	players       []model.PlayerGameRecord
	byPlayer      map[string][]int
	byTeamPlayers map[string][]int
	byGamePlayer  map[string]int
}

// NewMemoryStore validates raw rows and indexes them by team, game and player.
//
// Validation happens here and only here: every row needs a game id, a date,
// a team and a distinct opponent, and (GameID, Team) / (GameID, Player) must be
// unique. Team codes are upper-cased and dates truncated to UTC midnight.
// Missing PointsAllowed is filled from the opponent row and a missing Result
// is derived from the score. A player row without an opponent takes it from
// the game rows and is rejected when no game row names one.
func NewMemoryStore(ctx context.Context, games []model.GameRecord, players []model.PlayerGameRecord) (*MemoryStore, error) {
	s := &MemoryStore{
		byTeam:        make(map[string][]int),
		byGame:        make(map[string][]int),
		byPlayer:      make(map[string][]int),
		byTeamPlayers: make(map[string][]int),
		byGamePlayer:  make(map[string]int),
	}

	seen := make(map[string]struct{}, len(games))
	for i, g := range games {
		g.GameID = strings.TrimSpace(g.GameID)
		g.Team = model.TeamCode(g.Team)
		g.Opponent = model.TeamCode(g.Opponent)
		if err := validateGame(g); err != nil {
			return nil, fmt.Errorf("game row %d: %w", i, err)
		}
		g.Date = model.Day(g.Date)
		key := g.GameID + "|" + g.Team
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("game %s team %s: %w", g.GameID, g.Team, ErrDuplicateRecord)
		}
		seen[key] = struct{}{}
		s.games = append(s.games, g)
	}

	sort.SliceStable(s.games, func(i, j int) bool {
		a, b := s.games[i], s.games[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.GameID != b.GameID {
			return a.GameID < b.GameID
		}
		return a.Team < b.Team
	})

	for i, g := range s.games {
		s.byTeam[g.Team] = append(s.byTeam[g.Team], i)
		if _, ok := s.byGame[g.GameID]; !ok {
			s.gameIDs = append(s.gameIDs, g.GameID)
		}
		s.byGame[g.GameID] = append(s.byGame[g.GameID], i)
	}
	s.fillDerived()

	for i, p := range players {
		p.GameID = strings.TrimSpace(p.GameID)
		p.Team = model.TeamCode(p.Team)
		p.Opponent = model.TeamCode(p.Opponent)
		p.Player = strings.Join(strings.Fields(p.Player), " ")
		if err := validatePlayer(p); err != nil {
			return nil, fmt.Errorf("player row %d: %w", i, err)
		}
		if p.Opponent == "" {
			opp, ok := s.opponentOf(p.GameID, p.Team)
			if !ok {
				return nil, fmt.Errorf("player row %d: game %s has no opponent for %s: %w", i, p.GameID, p.Team, ErrInvalidRecord)
			}
			p.Opponent = opp
		}
		p.Date = model.Day(p.Date)
		s.players = append(s.players, p)
	}
	sort.SliceStable(s.players, func(i, j int) bool {
		return s.players[i].Date.Before(s.players[j].Date)
	})
	for i, p := range s.players {
		key := playerGameKey(p.GameID, p.Player)
		if _, dup := s.byGamePlayer[key]; dup {
			return nil, fmt.Errorf("game %s player %s: %w", p.GameID, p.Player, ErrDuplicateRecord)
		}
		s.byGamePlayer[key] = i
		name := model.PlayerKey(p.Player)
		s.byPlayer[name] = append(s.byPlayer[name], i)
		s.byTeamPlayers[p.Team] = append(s.byTeamPlayers[p.Team], i)
	}

	metrics.UpdateCorpusSize(len(s.games), len(s.players))
	metrics.UpdateCorpusTeams(len(s.byTeam))
	return s, nil
}

// opponentOf returns the team facing team in gameID.
func (s *MemoryStore) opponentOf(gameID, team string) (string, bool) {
	for _, j := range s.byGame[gameID] {
		switch g := s.games[j]; team {
		case g.Team:
			return g.Opponent, true
		case g.Opponent:
			return g.Team, true
		}
	}
	return "", false
}

// fillDerived completes PointsAllowed and Result from the opposing row.
func (s *MemoryStore) fillDerived() {
	for i := range s.games {
		g := &s.games[i]
		if math.IsNaN(g.PointsAllowed) {
			if opp, ok := s.OpponentRecord(g.GameID, g.Team); ok {
				g.PointsAllowed = opp.PointsScored
			}
		}
		if g.Result == "" && !math.IsNaN(g.PointsScored) && !math.IsNaN(g.PointsAllowed) && g.PointsScored != g.PointsAllowed {
			if g.PointsScored > g.PointsAllowed {
				g.Result = model.Win
			} else {
				g.Result = model.Loss
			}
		}
	}
}

func validateGame(g model.GameRecord) error {
	switch {
	case g.GameID == "":
		return fmt.Errorf("missing game id: %w", ErrInvalidRecord)
	case g.Date.IsZero():
		return fmt.Errorf("missing date: %w", ErrInvalidRecord)
	case g.Team == "":
		return fmt.Errorf("missing team: %w", ErrInvalidRecord)
	case g.Opponent == "":
		return fmt.Errorf("missing opponent: %w", ErrInvalidRecord)
	case g.Team == g.Opponent:
		return fmt.Errorf("team %s plays itself: %w", g.Team, ErrInvalidRecord)
	}
	return nil
}

func validatePlayer(p model.PlayerGameRecord) error {
	switch {
	case p.GameID == "":
		return fmt.Errorf("missing game id: %w", ErrInvalidRecord)
	case p.Date.IsZero():
		return fmt.Errorf("missing date: %w", ErrInvalidRecord)
	case p.Player == "":
		return fmt.Errorf("missing player: %w", ErrInvalidRecord)
	case p.Team == "":
		return fmt.Errorf("missing team: %w", ErrInvalidRecord)
	}
	return nil
}

func playerGameKey(gameID, player string) string {
	return gameID + "|" + model.PlayerKey(player)
}

// Teams implements Store.
func (s *MemoryStore) Teams() []string {
	out := make([]string, 0, len(s.byTeam))
	for t := range s.byTeam {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTeam implements Store.
func (s *MemoryStore) HasTeam(team string) bool {
	return len(s.byTeam[model.TeamCode(team)]) > 0
}

// TeamGames implements Store.
func (s *MemoryStore) TeamGames(team string) []model.GameRecord {
	idx := s.byTeam[model.TeamCode(team)]
	out := make([]model.GameRecord, len(idx))
	for i, j := range idx {
		out[i] = s.games[j]
	}
	return out
}

// OpponentRecord implements Store.
func (s *MemoryStore) OpponentRecord(gameID, team string) (model.GameRecord, bool) {
	team = model.TeamCode(team)
	for _, j := range s.byGame[gameID] {
		if s.games[j].Team != team {
			return s.games[j], true
		}
	}
	return model.GameRecord{}, false
}

// GameRows implements Store.
func (s *MemoryStore) GameRows(gameID string) []model.GameRecord {
	idx := s.byGame[gameID]
	out := make([]model.GameRecord, len(idx))
	for i, j := range idx {
		out[i] = s.games[j]
	}
	return out
}

// GameIDs implements Store.
func (s *MemoryStore) GameIDs() []string {
	out := make([]string, len(s.gameIDs))
	copy(out, s.gameIDs)
	return out
}

// PlayerGames implements Store.
func (s *MemoryStore) PlayerGames(player string) []model.PlayerGameRecord {
	return s.collectPlayers(s.byPlayer[model.PlayerKey(player)])
}

// TeamPlayerGames implements Store.
func (s *MemoryStore) TeamPlayerGames(team string) []model.PlayerGameRecord {
	return s.collectPlayers(s.byTeamPlayers[model.TeamCode(team)])
}

// PlayerGame implements Store.
func (s *MemoryStore) PlayerGame(gameID, player string) (model.PlayerGameRecord, bool) {
	j, ok := s.byGamePlayer[playerGameKey(gameID, player)]
	if !ok {
		return model.PlayerGameRecord{}, false
	}
	return s.players[j], true
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, int) {
	return len(s.games), len(s.players)
}

func (s *MemoryStore) collectPlayers(idx []int) []model.PlayerGameRecord {
	out := make([]model.PlayerGameRecord, len(idx))
	for i, j := range idx {
		out[i] = s.players[j]
	}
	return out
}
