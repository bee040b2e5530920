package clip

import "errors"

// ErrInvalidSeedMode is returned by ParseSeedMode for unknown names.
var ErrInvalidSeedMode = errors.New("invalid clip seed mode")
