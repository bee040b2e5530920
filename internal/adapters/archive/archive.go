// Package archive defines the read interface shared by light-curve archive
// backends and the catalog table they return.
package archive

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

// Archive reads one catalog and the light curves of its objects.
type Archive interface {
	// Catalog returns the full catalog table.
	Catalog(ctx context.Context) (*Table, error)
	// Attributes returns per-column descriptions. Archives without
	// metadata return an empty map.
	Attributes(ctx context.Context) (map[string]string, error)
	// LightCurve returns the raw light curve stored under key.
	// ErrLightCurveNotFound is returned when nothing is stored under it.
	LightCurve(ctx context.Context, key string) (*lightcurve.Table, error)
	// Close releases the archive's resources.
	Close() error
}

// Table is a catalog: a header and rows of raw string cells.
type Table struct {
	Header []string
	Rows   [][]string
	index  map[string]int
}

// NewTable validates that every row matches the header width.
func NewTable(header []string, rows [][]string) (*Table, error) {
	t := &Table{Header: make([]string, len(header)), Rows: rows, index: make(map[string]int, len(header))}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.Header[i] = h
		if h == "" {
			return nil, fmt.Errorf("%w: empty column name at position %d", ErrInvalidArchive, i)
		}
		if _, dup := t.index[h]; dup {
			return nil, fmt.Errorf("%w: duplicate column %s", ErrInvalidArchive, h)
		}
		t.index[h] = i
	}
	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidArchive, r, len(row), len(header))
		}
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column.
func (t *Table) Index(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ParseFloat parses a numeric cell. Empty and "nan" cells become NaN.
func ParseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "nan":
		s = "NaN"
	}
	return strconv.ParseFloat(s, 64)
}

// FormatFloat renders v in the shortest form that parses back exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
