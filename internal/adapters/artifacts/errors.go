package artifacts

import "errors"

// Sentinel kinds for bundle errors. Everything except ErrNoArtifacts is also
// wrapped with model.ErrConfiguration.
var (
	ErrNoArtifacts  = errors.New("no artifact bundle")
	ErrMissingPiece = errors.New("artifact bundle is incomplete")
	ErrMismatch     = errors.New("artifact bundle is inconsistent")
)
