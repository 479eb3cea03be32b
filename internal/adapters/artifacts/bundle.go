// Package artifacts persists the trained model together with the scaler and
// vocabulary it was trained against, and refuses to load mismatched pieces.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/matchup/internal/domain/classifier"
	"github.com/okian/matchup/internal/domain/features"
	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/internal/domain/stats"
)

// File names inside a bundle directory.
const (
	ManifestFile   = "manifest.json"
	ModelFile      = "model.json"
	ScalerFile     = "scaler.json"
	VocabularyFile = "vocabulary.json"
)

// Manifest ties the bundle pieces together.
type Manifest struct {
	SchemaVersion  string           `json:"schema_version"`
	Fingerprint    string           `json:"fingerprint"`
	VocabularyHash string           `json:"vocabulary_hash"`
	VocabularySize int              `json:"vocabulary_size"`
	ScaledWidth    int              `json:"scaled_width"`
	FeatureWidth   int              `json:"feature_width"`
	Weights        features.Weights `json:"weights"`
	Settings       Settings         `json:"settings"`
	TrainedAt      time.Time        `json:"trained_at"`
	Examples       int              `json:"examples"`
	Accuracy       float64          `json:"accuracy"`

	// Holdout figures are set when training kept a test split aside.
	HoldoutExamples int     `json:"holdout_examples,omitempty"`
	HoldoutAccuracy float64 `json:"holdout_accuracy,omitempty"`
}

// Settings are the pipeline knobs that change what a feature column means.
// Serving must use the same values the model was trained with.
type Settings struct {
	LineupSize    int  `json:"lineup_size"`
	RecentWindow  int  `json:"recent_window"`
	InjuryOutOnly bool `json:"injury_out_only"`
}

// DefaultSettings matches the Builder and service defaults.
func DefaultSettings() Settings {
	return Settings{LineupSize: matchup.DefaultLineupSize, RecentWindow: stats.DefaultRecentWindow}
}

// Bundle is a loaded, validated set of artifacts.
type Bundle struct {
	Manifest   Manifest
	Model      *classifier.Logistic
	Scaler     *features.MinMaxScaler
	Vocabulary features.Vocabulary
}

// TrainingInfo is recorded in the manifest.
type TrainingInfo struct {
	TrainedAt       time.Time
	Examples        int
	Accuracy        float64
	HoldoutExamples int
	HoldoutAccuracy float64
}

// NewBundle assembles a bundle and its manifest from freshly trained pieces.
func NewBundle(vocab features.Vocabulary, scaler *features.MinMaxScaler, m *classifier.Logistic, w features.Weights, st Settings, info TrainingInfo) (*Bundle, error) {
	schema := features.NewSchema(vocab)
	b := &Bundle{
		Manifest: Manifest{
			SchemaVersion:  schema.Version,
			Fingerprint:    schema.Fingerprint(),
			VocabularyHash: vocab.Hash(),
			VocabularySize: vocab.Len(),
			ScaledWidth:    schema.ScaledLen(),
			FeatureWidth:   schema.Len(),
			Weights:        w,
			Settings:       st,
			TrainedAt:      info.TrainedAt.UTC(),
			Examples:       info.Examples,
			Accuracy:       info.Accuracy,

			HoldoutExamples: info.HoldoutExamples,
			HoldoutAccuracy: info.HoldoutAccuracy,
		},
		Model:      m,
		Scaler:     scaler,
		Vocabulary: vocab,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Schema is the column contract the bundle was trained on.
func (b *Bundle) Schema() features.Schema {
	return features.NewSchema(b.Vocabulary)
}

// Validate checks every piece against the manifest and the current schema.
func (b *Bundle) Validate() error {
	if b.Model == nil || b.Scaler == nil {
		return fmt.Errorf("%w: %w", model.ErrConfiguration, ErrMissingPiece)
	}
	m := b.Manifest
	schema := b.Schema()
	switch {
	case m.SchemaVersion != features.SchemaVersion:
		return mismatch("schema version %q, want %q", m.SchemaVersion, features.SchemaVersion)
	case m.VocabularyHash != b.Vocabulary.Hash():
		return mismatch("vocabulary hash %s, manifest %s", b.Vocabulary.Hash(), m.VocabularyHash)
	case m.Fingerprint != schema.Fingerprint():
		return mismatch("schema fingerprint %s, manifest %s", schema.Fingerprint(), m.Fingerprint)
	case b.Scaler.Width() != schema.ScaledLen() || m.ScaledWidth != schema.ScaledLen():
		return mismatch("scaler width %d, schema %d", b.Scaler.Width(), schema.ScaledLen())
	case b.Model.NumFeatures() != schema.Len() || m.FeatureWidth != schema.Len():
		return mismatch("model width %d, schema %d", b.Model.NumFeatures(), schema.Len())
	case m.Settings.LineupSize <= 0 || m.Settings.RecentWindow <= 0:
		return mismatch("settings %+v not recorded", m.Settings)
	}
	if err := m.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrMismatch, err)
	}
	return nil
}

// Assembler builds the feature assembler for this bundle. The configured
// weights and settings must be the ones the model was trained with.
func (b *Bundle) Assembler(w features.Weights, st Settings) (*features.Assembler, error) {
	if !w.Equal(b.Manifest.Weights) {
		return nil, mismatch("configured weights %+v, trained with %+v", w, b.Manifest.Weights)
	}
	if st != b.Manifest.Settings {
		return nil, mismatch("configured settings %+v, trained with %+v", st, b.Manifest.Settings)
	}
	return features.NewAssembler(b.Schema(), b.Scaler, w)
}

func mismatch(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", model.ErrConfiguration, ErrMismatch, fmt.Sprintf(format, args...))
}

// Save writes the bundle into dir, creating it if needed. Each file is
// written to a temporary name and renamed, manifest last.
func Save(dir string, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, f := range []struct {
		name string
		v    any
	}{
		{ModelFile, b.Model},
		{ScalerFile, b.Scaler},
		{VocabularyFile, b.Vocabulary},
		{ManifestFile, b.Manifest},
	} {
		if err := writeJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return err
		}
	}
	return nil
}

// Load reads and validates the bundle in dir. A missing directory or
// manifest yields ErrNoArtifacts; any other problem is a configuration error.
func Load(dir string) (*Bundle, error) {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoArtifacts)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", model.ErrConfiguration, dir)
	}
	// Save writes the manifest last, so without it nothing was published.
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoArtifacts)
	}

	b := &Bundle{Model: &classifier.Logistic{}, Scaler: &features.MinMaxScaler{}}
	for _, f := range []struct {
		name string
		v    any
	}{
		{ManifestFile, &b.Manifest},
		{ModelFile, b.Model},
		{ScalerFile, b.Scaler},
		{VocabularyFile, &b.Vocabulary},
	} {
		if err := readJSON(filepath.Join(dir, f.name), f.v); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w: %s", model.ErrConfiguration, ErrMissingPiece, filepath.Base(path))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", model.ErrConfiguration, filepath.Base(path), err)
	}
	return nil
}
