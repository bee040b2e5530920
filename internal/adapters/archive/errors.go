package archive

import "errors"

// Sentinel errors shared by archive backends.
var (
	ErrInvalidArchive     = errors.New("invalid archive")
	ErrLightCurveNotFound = errors.New("light curve not found")
)
