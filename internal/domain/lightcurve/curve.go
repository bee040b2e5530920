package lightcurve

import (
	"fmt"

	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/clip"
)

// Clipper rejects outliers from one band of dereddened magnitudes.
type Clipper interface {
	Apply(mags []float64) clip.Result
}

// ClipSummary reports what the outlier filter did to one band.
type ClipSummary struct {
	Seed       float64 `json:"seed"`
	Threshold  float64 `json:"threshold"`
	Steps      int     `json:"steps"`
	Considered int     `json:"considered"`
	Masked     int     `json:"masked"`
}

// BandCurve is one band of a cleaned light curve. All slices are row
// aligned with the curve.
type BandCurve struct {
	Band      band.Band    `json:"band"`
	MJD       []Value      `json:"mjd"`
	Dered     []Value      `json:"dered"`
	PSFMagErr []Value      `json:"psfmagerr"`
	Datetime  []Time       `json:"datetime,omitempty"`
	Clip      *ClipSummary `json:"clip,omitempty"`
}

// Curve is a dereddened, optionally clipped light curve. A Curve is not
// modified after Build returns and may be shared between readers.
type Curve struct {
	TrainID  int64        `json:"train_id"`
	Class    string       `json:"class"`
	Source   string       `json:"source"`
	Rows     int          `json:"rows"`
	Clipped  bool         `json:"clipped"`
	Datetime bool         `json:"datetime"`
	Bands    []*BandCurve `json:"bands"`
}

// Band returns the curve for b.
func (c *Curve) Band(b band.Band) (*BandCurve, bool) {
	for _, bc := range c.Bands {
		if bc.Band == b {
			return bc, true
		}
	}
	return nil, false
}

// BandList returns the bands carried by the curve in order.
func (c *Curve) BandList() []band.Band {
	out := make([]band.Band, len(c.Bands))
	for i, bc := range c.Bands {
		out[i] = bc.Band
	}
	return out
}

// Columns lists the tabular column names of the curve, band by band.
func (c *Curve) Columns() []string {
	cols := make([]string, 0, len(c.Bands)*4)
	for _, bc := range c.Bands {
		cols = append(cols, bc.Band.MJDColumn(), bc.Band.DeredColumn(), bc.Band.PSFMagErrColumn())
		if c.Datetime {
			cols = append(cols, bc.Band.DatetimeColumn())
		}
	}
	return cols
}

// BuildOptions controls how a raw table becomes a Curve.
type BuildOptions struct {
	// Bands to produce. Empty means all five.
	Bands []band.Band
	// Extinction per band, subtracted from psfmag. Every requested band
	// must be present.
	Extinction map[band.Band]float64
	// Datetime adds calendar timestamps derived from each band's MJD.
	Datetime bool
	// Filter, when set, rejects outliers per band.
	Filter Clipper
}

// Build sorts raw by the u-band timestamp, dereddens each requested band,
// optionally runs the outlier filter and converts sentinel and rejected
// values to Missing.
//
// Raw sentinel magnitudes keep their dereddened numeric value while the
// filter runs, so they count towards its statistics, but they are always
// Missing in the result.
func Build(raw *Table, opts BuildOptions) (*Curve, error) {
	bands := opts.Bands
	if len(bands) == 0 {
		bands = band.All
	}

	sorted, err := raw.SortBy(band.U.MJDColumn())
	if err != nil {
		return nil, err
	}

	c := &Curve{
		Rows:     sorted.Len(),
		Clipped:  opts.Filter != nil,
		Datetime: opts.Datetime,
		Bands:    make([]*BandCurve, 0, len(bands)),
	}
	for _, b := range bands {
		obs, err := sorted.Band(b)
		if err != nil {
			return nil, err
		}
		ext, ok := opts.Extinction[b]
		if !ok {
			return nil, fmt.Errorf("%w: no extinction for %s", ErrMissingBand, b)
		}
		c.Bands = append(c.Bands, buildBand(obs, ext, opts))
	}
	return c, nil
}

func buildBand(obs Observations, ext float64, opts BuildOptions) *BandCurve {
	n := len(obs.MJD)
	dered, invalid := Deredden(obs.PSFMag, ext)

	var masked []bool
	bc := &BandCurve{
		Band:      obs.Band,
		MJD:       make([]Value, n),
		Dered:     make([]Value, n),
		PSFMagErr: make([]Value, n),
	}
	if opts.Filter != nil {
		res := opts.Filter.Apply(dered)
		masked = res.Masked
		bc.Clip = &ClipSummary{
			Seed:       res.Seed,
			Threshold:  res.Threshold,
			Steps:      res.Steps,
			Considered: res.Considered,
			Masked:     res.Rejected,
		}
	}

	for i := 0; i < n; i++ {
		bc.MJD[i] = ValueOf(obs.MJD[i])
		bc.PSFMagErr[i] = ValueOf(obs.PSFMagErr[i])
		if invalid[i] || (masked != nil && masked[i]) {
			bc.Dered[i] = Missing
			continue
		}
		bc.Dered[i] = ValueOf(dered[i])
	}

	if opts.Datetime {
		bc.Datetime = make([]Time, n)
		for i, m := range bc.MJD {
			if m.Valid {
				bc.Datetime[i] = Time{Time: MJDToTime(m.Float), Valid: true}
			}
		}
	}
	return bc
}

// Deredden subtracts the extinction from every magnitude. invalid marks
// epochs whose raw magnitude was the sentinel; their numeric value is still
// psfmag-extinction.
func Deredden(psfmag []float64, extinction float64) (dered []float64, invalid []bool) {
	dered = make([]float64, len(psfmag))
	invalid = make([]bool, len(psfmag))
	for i, m := range psfmag {
		dered[i] = m - extinction
		invalid[i] = IsSentinel(m)
	}
	return dered, invalid
}
