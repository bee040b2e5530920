// Package clip implements the iterative outlier filter applied to a single
// band of a light curve.
//
// Each magnitude is compared with a three-point running median. Residuals
// above a threshold are rejected; the threshold starts from a seed and is
// raised in fixed steps until fewer than MaxRejectRatio of the epochs would
// be rejected. The first and last epochs take their median window from the
// opposite end of the sequence (circular wraparound), and the second to last
// epoch is its own reference. Both quirks are kept for parity with the
// catalogs that were published with this filter.
package clip

import (
	"math"
	"sort"
)

// Default filter parameters.
const (
	DefaultSeed           = 0.25
	DefaultSigmaFactor    = 3.0
	DefaultStep           = 0.1
	DefaultMaxRejectRatio = 0.1

	// minWindow is the smallest sequence for which a median window exists.
	minWindow = 3
)

// Result describes the outcome of filtering one band.
type Result struct {
	// Masked has one entry per input value; true marks a rejected epoch.
	// Non-finite inputs are never marked, they are already missing.
	Masked []bool
	// Considered counts the finite values the statistics ran over.
	Considered int
	// Rejected counts the entries set in Masked.
	Rejected int
	// Seed is the starting threshold.
	Seed float64
	// Threshold is the final threshold after the search.
	Threshold float64
	// Steps is how many times the threshold was raised.
	Steps int
}

// RejectionRatio is Rejected/Considered, or 0 when nothing was considered.
func (r Result) RejectionRatio() float64 {
	if r.Considered == 0 {
		return 0
	}
	return float64(r.Rejected) / float64(r.Considered)
}

// Filter rejects outliers from magnitude sequences. It holds only its
// parameters and is safe for concurrent use.
type Filter struct {
	mode           SeedMode
	seed           float64
	sigmaFactor    float64
	step           float64
	maxRejectRatio float64
}

// New creates a Filter with the published defaults: fixed seed 0.25 mag,
// step 0.1 mag, target rejection below 10%.
func New(opts ...Option) *Filter {
	f := &Filter{
		mode:           SeedFixed,
		seed:           DefaultSeed,
		sigmaFactor:    DefaultSigmaFactor,
		step:           DefaultStep,
		maxRejectRatio: DefaultMaxRejectRatio,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Mode returns the seed mode in use.
func (f *Filter) Mode() SeedMode { return f.mode }

// Apply filters one band. The input is not modified.
//
// NaN and infinite values are treated as already missing: they are left out
// of every statistic and the algorithm runs over the remaining values in
// order. Fewer than three remaining values means there is no median window
// and nothing is rejected.
func (f *Filter) Apply(mags []float64) Result {
	idx := make([]int, 0, len(mags))
	vals := make([]float64, 0, len(mags))
	for i, v := range mags {
		if isFinite(v) {
			idx = append(idx, i)
			vals = append(vals, v)
		}
	}

	res := Result{
		Masked:     make([]bool, len(mags)),
		Considered: len(vals),
	}
	res.Seed = f.seedFor(vals)
	res.Threshold = res.Seed
	if len(vals) < minWindow {
		return res
	}

	resid := Residuals(vals)
	res.Threshold, res.Steps = f.search(resid, res.Seed)
	for i, r := range resid {
		if r > res.Threshold {
			res.Masked[idx[i]] = true
			res.Rejected++
		}
	}
	return res
}

// seedFor returns the starting threshold for vals.
func (f *Filter) seedFor(vals []float64) float64 {
	if f.mode == SeedSigma {
		return f.sigmaFactor * StdDev(vals)
	}
	return f.seed
}

// exactSteps bounds the number of single-step raises taken one at a time.
// Longer searches jump close to the answer instead.
const exactSteps = 1 << 20

// search raises the threshold from seed until the share of residuals above
// it drops below maxRejectRatio. The answer is the first point of the grid
// seed + k*step at or past the critical residual, the smallest residual that
// leaves few enough values above it.
func (f *Filter) search(resid []float64, seed float64) (float64, int) {
	sorted := append([]float64(nil), resid...)
	sort.Float64s(sorted)
	n := len(sorted)
	above := func(t float64) int {
		return n - sort.Search(n, func(i int) bool { return sorted[i] > t })
	}
	ok := func(t float64) bool {
		return float64(above(t))/float64(n) < f.maxRejectRatio
	}
	if ok(seed) {
		return seed, 0
	}

	critical := sorted[n-1-f.allowedAbove(n)]
	if math.IsInf(critical, 1) {
		return math.MaxFloat64, math.MaxInt
	}
	k := math.Ceil((critical - seed) / f.step)

	if k <= exactSteps {
		t := seed
		steps := 0
		for !ok(t) && steps <= exactSteps+1 {
			next := t + f.step
			if next == t {
				break
			}
			t = next
			steps++
		}
		if !ok(t) {
			t = critical
		}
		return t, steps
	}

	t := seed + k*f.step
	for i := 0; i < 2 && k > 0; i++ {
		prev := seed + (k-1)*f.step
		if prev == t || !ok(prev) {
			break
		}
		k--
		t = prev
	}
	for i := 0; i < 2 && !ok(t); i++ {
		next := t + f.step
		if next == t {
			break
		}
		k++
		t = next
	}
	if !ok(t) {
		t = critical
	}
	if k >= float64(math.MaxInt) {
		return t, math.MaxInt
	}
	return t, int(k)
}

// allowedAbove returns how many of n residuals may stay above the threshold.
func (f *Filter) allowedAbove(n int) int {
	a := n - 1
	for a > 0 && float64(a)/float64(n) >= f.maxRejectRatio {
		a--
	}
	return a
}

// References returns the three-point median reference for each value.
//
// Interior epochs 1..n-3 use their immediate neighbours. Epoch 0 uses
// (m[n-1], m[0], m[1]) and epoch n-1 uses (m[n-2], m[n-1], m[0]). Epoch n-2
// keeps its own value.
func References(m []float64) []float64 {
	n := len(m)
	ref := append([]float64(nil), m...)
	if n == 0 {
		return ref
	}
	for i := 1; i <= n-3; i++ {
		ref[i] = median3(m[i-1], m[i], m[i+1])
	}
	ref[0] = median3(m[n-1], m[0], m[1%n])
	ref[n-1] = median3(m[(2*n-2)%n], m[n-1], m[0])
	return ref
}

// Residuals returns |m[i] - ref[i]| using References.
func Residuals(m []float64) []float64 {
	ref := References(m)
	out := make([]float64, len(m))
	for i := range m {
		out[i] = math.Abs(m[i] - ref[i])
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
