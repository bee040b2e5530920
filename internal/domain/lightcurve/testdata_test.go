package lightcurve_test

import (
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

// rawTable builds a light-curve table with every band sharing the given
// timestamps, magnitudes and errors. mags is copied per band.
func rawTable(mjd, mags, errs []float64) *lightcurve.Table {
	cols := make(map[string][]float64)
	for _, b := range band.All {
		cols[b.MJDColumn()] = append([]float64(nil), mjd...)
		cols[b.PSFMagColumn()] = append([]float64(nil), mags...)
		cols[b.PSFMagErrColumn()] = append([]float64(nil), errs...)
	}
	t, err := lightcurve.NewTable(cols)
	if err != nil {
		panic(err)
	}
	return t
}

func extinction(v float64) map[band.Band]float64 {
	out := make(map[band.Band]float64, len(band.All))
	for _, b := range band.All {
		out[b] = v
	}
	return out
}

func repeat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
