package lightcurve

import "errors"

// Sentinel kinds for light-curve errors.
var (
	ErrMissingBand          = errors.New("band missing from light curve")
	ErrRaggedTable          = errors.New("table columns differ in length")
	ErrInvalidNormalization = errors.New("invalid normalization")
)
