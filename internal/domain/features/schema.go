// Package features turns team snapshots, lineup differentials, injuries and
// head-to-head records into the fixed-order vector the classifier reads.
//
// Vector layout, in order:
//
//	season   paired team1/team2 stats plus interaction columns
//	lineup   per-team lineup differentials and meeting counts
//	injury   multi-hot over the frozen vocabulary
//	h2h      team1, team2 head-to-head win pct (not scaled)
//
// The first three blocks are min-max scaled and multiplied by the season
// weight; the h2h block is multiplied by the head-to-head weight.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SchemaVersion identifies the column layout below. Bump it whenever a
// column is added, removed or reordered.
const SchemaVersion = "3"

// pairedStats are emitted as t1_<name>, t2_<name>.
var pairedStats = []string{ //nolint:gochecknoglobals // column contract
	"wins",
	"losses",
	"win_pct",
	"recent_win_pct",
	"avg_pts",
	"avg_pts_allowed",
	"fg_pct",
	"fg3_pct",
	"ft_pct",
	"off_reb",
	"def_reb",
	"turnovers",
	"ast_to_ratio",
	"home",
	"back_to_back",
	"days_rest",
	"streak",
}

var interactionStats = []string{ //nolint:gochecknoglobals // column contract
	"win_pct_diff",
	"pts_differential",
	"rest_advantage",
	"streak_momentum",
	"fg_pct_diff",
	"three_pct_diff",
}

var lineupStats = []string{ //nolint:gochecknoglobals // column contract
	"lineup_pts_diff",
	"lineup_reb_diff",
	"lineup_ast_diff",
	"lineup_fg_pct_diff",
	"lineup_games_vs_opp",
}

var h2hColumns = []string{"h2h_t1_win_pct", "h2h_t2_win_pct"} //nolint:gochecknoglobals // column contract

// Block widths that do not depend on the vocabulary.
var (
	SeasonWidth = 2*len(pairedStats) + len(interactionStats) //nolint:gochecknoglobals // derived constant
	LineupWidth = 2 * len(lineupStats)                       //nolint:gochecknoglobals // derived constant
	H2HWidth    = len(h2hColumns)                            //nolint:gochecknoglobals // derived constant
)

// Schema is the ordered column contract for one vocabulary.
type Schema struct {
	Version    string
	Vocabulary Vocabulary
}

// NewSchema returns the current schema over vocab.
func NewSchema(vocab Vocabulary) Schema {
	return Schema{Version: SchemaVersion, Vocabulary: vocab}
}

// Columns returns every column name in vector order.
func (s Schema) Columns() []string {
	cols := make([]string, 0, s.Len())
	for _, name := range pairedStats {
		cols = append(cols, "t1_"+name, "t2_"+name)
	}
	cols = append(cols, interactionStats...)
	for _, team := range []string{"t1_", "t2_"} {
		for _, name := range lineupStats {
			cols = append(cols, team+name)
		}
	}
	for _, p := range s.Vocabulary.Names() {
		cols = append(cols, "injured:"+p)
	}
	return append(cols, h2hColumns...)
}

// ScaledLen is the width of the min-max scaled prefix.
func (s Schema) ScaledLen() int {
	return SeasonWidth + LineupWidth + s.Vocabulary.Len()
}

// Len is the full vector width.
func (s Schema) Len() int {
	return s.ScaledLen() + H2HWidth
}

// Fingerprint is the hex SHA-256 of the version and ordered column names.
func (s Schema) Fingerprint() string {
	h := sha256.New()
	h.Write([]byte(s.Version))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(s.Columns(), "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
