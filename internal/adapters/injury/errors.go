package injury

import "errors"

// Sentinel kinds for injury collaborator errors.
var (
	ErrBadStatus = errors.New("injury source returned non-2xx status")
	ErrDecode    = errors.New("injury payload decode failed")
	ErrNoSources = errors.New("no injury sources configured")
)
