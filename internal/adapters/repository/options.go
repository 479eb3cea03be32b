package repository

// CSVOption applies a configuration option to the CSVLoader.
type CSVOption func(*CSVLoader)

// WithPlayersPath sets the player game log file. Without it the corpus has
// no player rows and lineup features stay at zero.
func WithPlayersPath(path string) CSVOption {
	return func(l *CSVLoader) {
		l.playersPath = path
	}
}

// WithDateLayouts overrides the accepted GAME_DATE layouts.
func WithDateLayouts(layouts ...string) CSVOption {
	return func(l *CSVLoader) {
		if len(layouts) > 0 {
			l.dateLayouts = layouts
		}
	}
}

// PostgresOption applies a configuration option to the PostgresLoader.
type PostgresOption func(*PostgresLoader)

// WithTables overrides the table names read by the PostgresLoader.
func WithTables(games, players string) PostgresOption {
	return func(l *PostgresLoader) {
		if games != "" {
			l.gamesTable = games
		}
		if players != "" {
			l.playersTable = players
		}
	}
}
