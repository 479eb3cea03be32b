// Package classifier holds the opaque model contract and the logistic
// model persisted with trained bundles.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/matchup/internal/domain/model"
)

// Class labels. A prediction is framed from team1's side.
const (
	ClassTeam2 = 0
	ClassTeam1 = 1
)

// Sentinel kinds for classifier errors.
var (
	ErrUntrained   = errors.New("classifier has no weights")
	ErrNoExamples  = errors.New("no training examples")
	ErrSingleClass = errors.New("training labels contain a single class")
)

// Classifier is a trained binary model over fixed-width rows.
type Classifier interface {
	// NumFeatures is the row width the model was trained on.
	NumFeatures() int
	// Predict returns ClassTeam1 or ClassTeam2.
	Predict(x []float64) (int, error)
	// PredictProba returns probabilities indexed by class.
	PredictProba(x []float64) ([]float64, error)
}

// Logistic is a binary logistic regression model.
type Logistic struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// NumFeatures implements Classifier.
func (l *Logistic) NumFeatures() int { return len(l.Weights) }

// PredictProba implements Classifier.
func (l *Logistic) PredictProba(x []float64) ([]float64, error) {
	if len(l.Weights) == 0 {
		return nil, ErrUntrained
	}
	if len(x) != len(l.Weights) {
		return nil, fmt.Errorf("%w: model expects %d features, got %d", model.ErrConfiguration, len(l.Weights), len(x))
	}
	p := sigmoid(l.margin(x))
	return []float64{1 - p, p}, nil
}

// Predict implements Classifier. Ties go to team1.
func (l *Logistic) Predict(x []float64) (int, error) {
	proba, err := l.PredictProba(x)
	if err != nil {
		return 0, err
	}
	if proba[ClassTeam1] >= proba[ClassTeam2] {
		return ClassTeam1, nil
	}
	return ClassTeam2, nil
}

func (l *Logistic) margin(x []float64) float64 {
	z := l.Bias
	for i, w := range l.Weights {
		z += w * x[i]
	}
	return z
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// FitOption applies a configuration option to FitLogistic.
type FitOption func(*fitConfig)

type fitConfig struct {
	epochs       int
	learningRate float64
	l2           float64
}

// WithEpochs sets the number of full passes over the data.
func WithEpochs(n int) FitOption {
	return func(c *fitConfig) {
		if n > 0 {
			c.epochs = n
		}
	}
}

// WithLearningRate sets the gradient step size.
func WithLearningRate(r float64) FitOption {
	return func(c *fitConfig) {
		if r > 0 {
			c.learningRate = r
		}
	}
}

// WithL2 sets the ridge penalty.
func WithL2(l2 float64) FitOption {
	return func(c *fitConfig) {
		if l2 >= 0 {
			c.l2 = l2
		}
	}
}

// FitLogistic trains a Logistic model by batch gradient descent. Labels are
// ClassTeam1 or ClassTeam2.
func FitLogistic(ctx context.Context, x [][]float64, y []int, opts ...FitOption) (*Logistic, error) {
	cfg := fitConfig{epochs: 500, learningRate: 0.5, l2: 1e-3}
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(x) == 0 || len(x) != len(y) {
		return nil, ErrNoExamples
	}
	var pos int
	for _, v := range y {
		if v == ClassTeam1 {
			pos++
		}
	}
	if pos == 0 || pos == len(y) {
		return nil, ErrSingleClass
	}

	width := len(x[0])
	m := &Logistic{Weights: make([]float64, width)}
	grad := make([]float64, width)
	n := float64(len(x))
	for epoch := 0; epoch < cfg.epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := range grad {
			grad[j] = 0
		}
		var gb float64
		for i, row := range x {
			if len(row) != width {
				return nil, fmt.Errorf("%w: row %d has %d features, want %d", model.ErrConfiguration, i, len(row), width)
			}
			diff := sigmoid(m.margin(row)) - float64(y[i])
			for j, v := range row {
				grad[j] += diff * v
			}
			gb += diff
		}
		for j := range m.Weights {
			m.Weights[j] -= cfg.learningRate * (grad[j]/n + cfg.l2*m.Weights[j])
		}
		m.Bias -= cfg.learningRate * gb / n
	}
	return m, nil
}

// Accuracy is the share of rows whose predicted class matches y.
func Accuracy(c Classifier, x [][]float64, y []int) (float64, error) {
	if len(x) == 0 {
		return 0, ErrNoExamples
	}
	var hit int
	for i, row := range x {
		p, err := c.Predict(row)
		if err != nil {
			return 0, err
		}
		if p == y[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(x)), nil
}
