package lightcurve

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/clip"
)

// Normalization selects the offset subtracted from each band's magnitudes.
type Normalization string

// Supported normalizations.
const (
	NormalizeNone   Normalization = "none"
	NormalizeMean   Normalization = "mean"
	NormalizeMedian Normalization = "median"
)

// ParseNormalization accepts none, mean or median; empty means none.
func ParseNormalization(s string) (Normalization, error) {
	switch n := Normalization(strings.ToLower(strings.TrimSpace(s))); n {
	case "":
		return NormalizeNone, nil
	case NormalizeNone, NormalizeMean, NormalizeMedian:
		return n, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidNormalization, s)
}

// Window bounds the epochs kept in a series. Zero times are unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) contains(mjd float64) bool {
	if !w.From.IsZero() && mjd < TimeToMJD(w.From) {
		return false
	}
	if !w.To.IsZero() && mjd > TimeToMJD(w.To) {
		return false
	}
	return true
}

// Series is one band prepared for plotting: three parallel sequences with
// missing epochs removed.
type Series struct {
	Band   band.Band `json:"band"`
	MJD    []float64 `json:"mjd"`
	Mag    []float64 `json:"mag"`
	Err    []float64 `json:"err"`
	Offset float64   `json:"offset"`
}

// Len returns the number of epochs in the series.
func (s Series) Len() int { return len(s.MJD) }

// Shape turns the requested bands of c into plot series. An epoch is kept
// when its timestamp, magnitude and error are all present, the magnitude is
// positive and the timestamp falls inside w. Each series is ordered by its
// own timestamps and then shifted by the band's mean or median magnitude.
func Shape(c *Curve, bands []band.Band, norm Normalization, w Window) ([]Series, error) {
	if len(bands) == 0 {
		bands = c.BandList()
	}
	out := make([]Series, 0, len(bands))
	for _, b := range bands {
		bc, ok := c.Band(b)
		if !ok {
			return nil, fmt.Errorf("%w: %s not retrieved", ErrMissingBand, b)
		}
		out = append(out, shapeBand(bc, norm, w))
	}
	return out, nil
}

type point struct{ mjd, mag, err float64 }

func shapeBand(bc *BandCurve, norm Normalization, w Window) Series {
	pts := make([]point, 0, len(bc.MJD))
	for i := range bc.MJD {
		mjd, mag, e := bc.MJD[i], bc.Dered[i], bc.PSFMagErr[i]
		if !mjd.Valid || !mag.Valid || !e.Valid || mag.Float <= 0 {
			continue
		}
		if !w.contains(mjd.Float) {
			continue
		}
		pts = append(pts, point{mjd.Float, mag.Float, e.Float})
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].mjd < pts[b].mjd })

	s := Series{
		Band: bc.Band,
		MJD:  make([]float64, len(pts)),
		Mag:  make([]float64, len(pts)),
		Err:  make([]float64, len(pts)),
	}
	for i, p := range pts {
		s.MJD[i], s.Mag[i], s.Err[i] = p.mjd, p.mag, p.err
	}

	if len(pts) > 0 {
		switch norm {
		case NormalizeMean:
			s.Offset = clip.Mean(s.Mag)
		case NormalizeMedian:
			s.Offset = clip.Median(s.Mag)
		}
	}
	if s.Offset != 0 && !math.IsNaN(s.Offset) {
		for i := range s.Mag {
			s.Mag[i] -= s.Offset
		}
	}
	return s
}
