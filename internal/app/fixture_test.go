package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/archive/dirarchive"
	"github.com/okian/lcarchive/internal/adapters/repository"
	service "github.com/okian/lcarchive/internal/app"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

const epochs = 20

var extinctionCols = []string{"extinction_u", "extinction_g", "extinction_r", "extinction_i", "extinction_z"}

// rawCurve builds a light curve whose rows are stored in reverse time
// order. Band r carries a flare at the fourth epoch and band g a sentinel
// at the second. Bands listed in skip are left out.
func rawCurve(base float64, skip ...band.Band) *lightcurve.Table {
	omit := make(map[band.Band]bool)
	for _, b := range skip {
		omit[b] = true
	}
	cols := make(map[string][]float64)
	for bi, b := range band.All {
		if omit[b] {
			continue
		}
		mjd := make([]float64, epochs)
		mag := make([]float64, epochs)
		errs := make([]float64, epochs)
		for i := 0; i < epochs; i++ {
			row := epochs - 1 - i
			mjd[row] = 53000 + float64(i) + float64(bi)*0.01
			mag[row] = base + float64(bi)*0.1
			errs[row] = 0.02
		}
		cols[b.MJDColumn()] = mjd
		cols[b.PSFMagColumn()] = mag
		cols[b.PSFMagErrColumn()] = errs
	}
	if m, ok := cols[band.R.PSFMagColumn()]; ok {
		m[epochs-1-3] += 4
	}
	if m, ok := cols[band.G.PSFMagColumn()]; ok {
		m[epochs-1-1] = lightcurve.Sentinel
	}
	t, err := lightcurve.NewTable(cols)
	if err != nil {
		panic(err)
	}
	return t
}

func catalogTable(t *testing.T, extra []string, rows ...[]string) *archive.Table {
	t.Helper()
	header := append(append([]string{"train_id"}, extra...), extinctionCols...)
	tbl, err := archive.NewTable(header, rows)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return tbl
}

// writeArchives lays out a quasar and a variable star archive under dir:
//
//	qso:   1 (no z band), 2 (catalogued but no light curve)
//	vstar: 7 (stored under ivz_id 5001)
func writeArchives(t *testing.T, dir string) (qsoPath, varPath string) {
	t.Helper()
	ctx := context.Background()
	qsoPath = filepath.Join(dir, "qso")
	varPath = filepath.Join(dir, "var")

	qso := catalogTable(t, []string{"class"},
		[]string{"1", "QSO", "0.1", "0.1", "0.1", "0.1", "0.1"},
		[]string{"2", "QSO", "0.1", "0.1", "0.1", "0.1", "0.1"},
	)
	if err := dirarchive.Write(ctx, qsoPath, qso, map[string]string{"class": "spectral class"},
		map[string]*lightcurve.Table{"1": rawCurve(19, band.Z)}); err != nil {
		t.Fatalf("write qso archive: %v", err)
	}

	vstar := catalogTable(t, []string{"ivz_id"},
		[]string{"7", "5001", "0.2", "0.2", "0.2", "0.2", "0.2"},
	)
	if err := dirarchive.Write(ctx, varPath, vstar, nil,
		map[string]*lightcurve.Table{"5001": rawCurve(17)}); err != nil {
		t.Fatalf("write var archive: %v", err)
	}
	return qsoPath, varPath
}

func catalogOptions(qsoPath, varPath string) service.Option {
	return service.WithCatalogs(
		service.CatalogSpec{Source: repository.QSOSource, Path: qsoPath},
		service.CatalogSpec{Source: repository.VarSource, Path: varPath},
	)
}
