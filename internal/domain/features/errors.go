package features

import "errors"

// Sentinel kinds for feature assembly errors. Each wraps model.ErrConfiguration
// at the point it is returned.
var (
	ErrWidthMismatch  = errors.New("feature width mismatch")
	ErrInvalidWeights = errors.New("invalid block weights")
	ErrEmptyDataset   = errors.New("empty dataset")
)
