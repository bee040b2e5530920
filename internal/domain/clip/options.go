package clip

import (
	"fmt"
	"strings"
)

// SeedMode selects how the starting threshold is chosen.
type SeedMode int

// Seed modes.
const (
	// SeedFixed starts from an absolute magnitude threshold.
	SeedFixed SeedMode = iota
	// SeedSigma starts from k times the population standard deviation of
	// the band, computed before any rejection.
	SeedSigma
)

func (m SeedMode) String() string {
	switch m {
	case SeedFixed:
		return "fixed"
	case SeedSigma:
		return "sigma"
	default:
		return "unknown"
	}
}

// ParseSeedMode accepts "fixed" or "sigma" (case-insensitive).
func ParseSeedMode(s string) (SeedMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "fixed":
		return SeedFixed, nil
	case "sigma":
		return SeedSigma, nil
	}
	return SeedFixed, fmt.Errorf("%w: %q", ErrInvalidSeedMode, s)
}

// Option applies a configuration option to the Filter.
type Option func(*Filter)

// WithFixedSeed starts the search from an absolute threshold in magnitudes.
func WithFixedSeed(threshold float64) Option {
	return func(f *Filter) {
		if threshold >= 0 {
			f.mode = SeedFixed
			f.seed = threshold
		}
	}
}

// WithSigmaSeed starts the search from factor times the band's standard
// deviation.
func WithSigmaSeed(factor float64) Option {
	return func(f *Filter) {
		if factor > 0 {
			f.mode = SeedSigma
			f.sigmaFactor = factor
		}
	}
}

// WithStep sets the threshold increment. Non-positive steps are ignored.
func WithStep(step float64) Option {
	return func(f *Filter) {
		if step > 0 {
			f.step = step
		}
	}
}

// WithMaxRejectRatio sets the rejection share the search must get below.
// Values outside (0, 1] are ignored.
func WithMaxRejectRatio(ratio float64) Option {
	return func(f *Filter) {
		if ratio > 0 && ratio <= 1 {
			f.maxRejectRatio = ratio
		}
	}
}
