// Package repository holds the historical game corpus and the loaders that fill it.
package repository

import (
	"context"

	"github.com/okian/matchup/internal/domain/model"
)

// Store provides read access to the historical corpus. Implementations are
// populated once at startup and are safe for concurrent readers.
type Store interface {
	// Teams returns every team code with at least one game row, sorted.
	Teams() []string
	// HasTeam reports whether team has at least one game row.
	HasTeam(team string) bool
	// TeamGames returns a team's rows ordered by date, then game id.
	TeamGames(team string) []model.GameRecord
	// OpponentRecord returns the other side's row for gameID.
	OpponentRecord(gameID, team string) (model.GameRecord, bool)
	// GameRows returns every row recorded under gameID.
	GameRows(gameID string) []model.GameRecord
	// GameIDs returns all game ids ordered by date, then id.
	GameIDs() []string

	// PlayerGames returns a player's rows ordered by date.
	PlayerGames(player string) []model.PlayerGameRecord
	// TeamPlayerGames returns every player row for team ordered by date.
	TeamPlayerGames(team string) []model.PlayerGameRecord
	// PlayerGame returns a player's row for a game.
	PlayerGame(gameID, player string) (model.PlayerGameRecord, bool)

	// Count returns the number of game rows and player rows.
	Count(ctx context.Context) (games int, players int)
}

// Loader produces raw corpus rows from a backing source.
type Loader interface {
	Load(ctx context.Context) ([]model.GameRecord, []model.PlayerGameRecord, error)
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Loader = (*CSVLoader)(nil)
	_ Loader = (*PostgresLoader)(nil)
)
