package repository

import "errors"

// Sentinel kinds for corpus errors.
var (
	ErrInvalidRecord   = errors.New("invalid record")
	ErrDuplicateRecord = errors.New("duplicate record")
	ErrLoad            = errors.New("load corpus failed")
)
