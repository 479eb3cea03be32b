package model

import "errors"

// Error kinds shared across layers. Callers classify with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrConfiguration       = errors.New("configuration error")
)
