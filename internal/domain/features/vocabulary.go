package features

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/okian/matchup/internal/domain/model"
)

// Vocabulary is the frozen, sorted list of player keys that own an injury
// column. The zero value is an empty vocabulary.
type Vocabulary struct {
	names []string
	index map[string]int
}

// NewVocabulary normalizes, de-duplicates and sorts names.
func NewVocabulary(names []string) Vocabulary {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if k := model.PlayerKey(n); k != "" {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)

	idx := make(map[string]int, len(out))
	for i, k := range out {
		idx[k] = i
	}
	return Vocabulary{names: out, index: idx}
}

// Names returns a copy of the vocabulary in column order.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len is the number of injury columns.
func (v Vocabulary) Len() int { return len(v.names) }

// Index returns the column offset of a player within the injury block.
func (v Vocabulary) Index(player string) (int, bool) {
	i, ok := v.index[model.PlayerKey(player)]
	return i, ok
}

// Encode returns the multi-hot row for the given missing players.
// Unknown players set no column.
func (v Vocabulary) Encode(missing ...[]string) []float64 {
	row := make([]float64, len(v.names))
	for _, group := range missing {
		for _, p := range group {
			if i, ok := v.Index(p); ok {
				row[i] = 1
			}
		}
	}
	return row
}

// Hash is the hex SHA-256 of the ordered names. It ties a vocabulary file
// to the model trained with it.
func (v Vocabulary) Hash() string {
	sum := sha256.Sum256([]byte(strings.Join(v.names, "\n")))
	return hex.EncodeToString(sum[:])
}

// MarshalJSON encodes the vocabulary as its ordered name list.
func (v Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Names())
}

// UnmarshalJSON rebuilds the vocabulary from a name list.
func (v *Vocabulary) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err != nil {
		return err
	}
	*v = NewVocabulary(names)
	return nil
}
