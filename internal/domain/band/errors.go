package band

import "errors"

// ErrUnknownBand is returned for names outside u, g, r, i, z.
var ErrUnknownBand = errors.New("unknown band")
