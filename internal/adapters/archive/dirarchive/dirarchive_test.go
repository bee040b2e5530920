package dirarchive_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/adapters/archive/dirarchive"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	cat, err := archive.NewTable(
		[]string{"train_id", "ivz_id", "extinction_g"},
		[][]string{{"1", "1001", "0.12"}, {"2", "1002", "0.30"}},
	)
	require.NoError(t, err)
	lc, err := lightcurve.NewTable(map[string][]float64{
		"mjd_g":       {53000.25, 53001.5},
		"psfmag_g":    {19.25, lightcurve.Sentinel},
		"psfmagerr_g": {0.02, 0.03},
	})
	require.NoError(t, err)

	attrs := map[string]string{"train_id": "unique object id", "ivz_id": "variable star id"}
	require.NoError(t, dirarchive.Write(ctx, root, cat, attrs, map[string]*lightcurve.Table{"1001": lc}))

	a, err := dirarchive.Open(root)
	require.NoError(t, err)
	defer a.Close()

	got, err := a.Catalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, cat.Header, got.Header)
	assert.Equal(t, cat.Rows, got.Rows)

	gotAttrs, err := a.Attributes(ctx)
	require.NoError(t, err)
	assert.Equal(t, attrs, gotAttrs)

	gotLC, err := a.LightCurve(ctx, "1001")
	require.NoError(t, err)
	assert.Equal(t, 2, gotLC.Len())
	mag, ok := gotLC.Column("psfmag_g")
	require.True(t, ok)
	assert.Equal(t, []float64{19.25, lightcurve.Sentinel}, mag)
}

func TestOpen_NoCatalog(t *testing.T) {
	_, err := dirarchive.Open(t.TempDir())
	require.ErrorIs(t, err, archive.ErrInvalidArchive)
}

func TestAttributes_Optional(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, dirarchive.CatalogFile), []byte("train_id\n1\n"), 0o644))

	a, err := dirarchive.Open(root)
	require.NoError(t, err)
	attrs, err := a.Attributes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, attrs)
}

func TestLightCurve_Errors(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dirarchive.LightCurveDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, dirarchive.CatalogFile), []byte("train_id\n1\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, dirarchive.LightCurveDir, "bad.csv"),
		[]byte("mjd_u,psfmag_u\n53000,abc\n"), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, dirarchive.LightCurveDir, "gaps.csv"),
		[]byte("mjd_u,psfmag_u\n53000,\n53001,nan\n"), 0o644))

	a, err := dirarchive.Open(root)
	require.NoError(t, err)

	_, err = a.LightCurve(ctx, "missing")
	require.ErrorIs(t, err, archive.ErrLightCurveNotFound)

	_, err = a.LightCurve(ctx, "../catalog")
	require.ErrorIs(t, err, archive.ErrLightCurveNotFound)

	_, err = a.LightCurve(ctx, "bad")
	require.ErrorIs(t, err, archive.ErrInvalidArchive)

	gaps, err := a.LightCurve(ctx, "gaps")
	require.NoError(t, err)
	mag, _ := gaps.Column("psfmag_u")
	assert.True(t, math.IsNaN(mag[0]))
	assert.True(t, math.IsNaN(mag[1]))
}
