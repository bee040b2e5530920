// Package dirarchive reads an archive laid out as plain files:
//
//	<root>/catalog.csv          catalog with a header row
//	<root>/catalog.attrs.yaml   optional column descriptions
//	<root>/sdss_lc/<key>.csv    one raw light curve per object
package dirarchive

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

// File layout.
const (
	CatalogFile    = "catalog.csv"
	AttributesFile = "catalog.attrs.yaml"
	LightCurveDir  = "sdss_lc"
)

// Archive is a directory-backed archive.Archive. Files are opened per call.
type Archive struct {
	root string
}

var _ archive.Archive = (*Archive)(nil)

// Open checks that root holds a catalog and returns an Archive over it.
func Open(root string) (*Archive, error) {
	st, err := os.Stat(filepath.Join(root, CatalogFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", archive.ErrInvalidArchive, root, err)
	}
	if st.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", archive.ErrInvalidArchive, CatalogFile)
	}
	return &Archive{root: root}, nil
}

// Root returns the archive directory.
func (a *Archive) Root() string { return a.root }

// Catalog implements archive.Archive.
func (a *Archive) Catalog(_ context.Context) (*archive.Table, error) {
	header, rows, err := readCSV(filepath.Join(a.root, CatalogFile))
	if err != nil {
		return nil, err
	}
	return archive.NewTable(header, rows)
}

// Attributes implements archive.Archive. A missing attributes file yields
// an empty map.
func (a *Archive) Attributes(_ context.Context) (map[string]string, error) {
	path := filepath.Join(a.root, AttributesFile)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}

	// Column names never contain "::", so every top-level key stays flat.
	k := koanf.New("::")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: attributes: %w", archive.ErrInvalidArchive, err)
	}
	out := make(map[string]string, len(k.Keys()))
	for _, key := range k.Keys() {
		out[key] = k.String(key)
	}
	return out, nil
}

// LightCurve implements archive.Archive.
func (a *Archive) LightCurve(_ context.Context, key string) (*lightcurve.Table, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return nil, fmt.Errorf("%w: key %q", archive.ErrLightCurveNotFound, key)
	}
	path := filepath.Join(a.root, LightCurveDir, key+".csv")
	header, rows, err := readCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: key %s", archive.ErrLightCurveNotFound, key)
	}
	if err != nil {
		return nil, err
	}

	cols := make(map[string][]float64, len(header))
	for _, h := range header {
		cols[strings.TrimSpace(h)] = make([]float64, len(rows))
	}
	for r, row := range rows {
		for c, cell := range row {
			v, err := archive.ParseFloat(cell)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d column %s: %w", archive.ErrInvalidArchive, key, r+1, header[c], err)
			}
			cols[strings.TrimSpace(header[c])][r] = v
		}
	}
	t, err := lightcurve.NewTable(cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", archive.ErrInvalidArchive, key, err)
	}
	return t, nil
}

// Close implements archive.Archive. Nothing is held open between calls.
func (a *Archive) Close() error { return nil }

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s is empty", archive.ErrInvalidArchive, filepath.Base(path))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", archive.ErrInvalidArchive, filepath.Base(path), err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", archive.ErrInvalidArchive, filepath.Base(path), err)
	}
	return header, rows, nil
}
