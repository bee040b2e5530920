// Package band defines the photometric passbands and the column naming
// conventions shared by catalogs and light-curve tables.
package band

import (
	"fmt"
	"strings"
)

// Band is one of the five SDSS photometric filters.
type Band string

// The five passbands in wavelength order.
const (
	U Band = "u"
	G Band = "g"
	R Band = "r"
	I Band = "i"
	Z Band = "z"
)

// All lists every band in wavelength order.
var All = []Band{U, G, R, I, Z}

// GRI is the band set used for merged light curves.
var GRI = []Band{G, R, I}

// Parse converts a single band name (case-insensitive) to a Band.
func Parse(s string) (Band, error) {
	b := Band(strings.ToLower(strings.TrimSpace(s)))
	if !b.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBand, s)
	}
	return b, nil
}

// ParseList parses a comma separated band list such as "g,r,i".
// An empty string yields All. Duplicates are dropped, first occurrence wins.
func ParseList(s string) ([]Band, error) {
	if strings.TrimSpace(s) == "" {
		return append([]Band(nil), All...), nil
	}
	parts := strings.Split(s, ",")
	out := make([]Band, 0, len(parts))
	seen := make(map[Band]bool, len(parts))
	for _, p := range parts {
		b, err := Parse(p)
		if err != nil {
			return nil, err
		}
		if seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out, nil
}

// Valid reports whether b is one of the five known bands.
func (b Band) Valid() bool {
	switch b {
	case U, G, R, I, Z:
		return true
	}
	return false
}

func (b Band) String() string { return string(b) }

// Column names for band-keyed fields.
func (b Band) MJDColumn() string        { return "mjd_" + string(b) }
func (b Band) PSFMagColumn() string     { return "psfmag_" + string(b) }
func (b Band) PSFMagErrColumn() string  { return "psfmagerr_" + string(b) }
func (b Band) ExtinctionColumn() string { return "extinction_" + string(b) }
func (b Band) DeredColumn() string      { return "dered_" + string(b) }
func (b Band) DatetimeColumn() string   { return "datetime_" + string(b) }

// Join renders bands as a comma separated list.
func Join(bands []Band) string {
	parts := make([]string, len(bands))
	for i, b := range bands {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}
