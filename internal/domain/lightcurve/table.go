// Package lightcurve models raw light-curve tables, the cleaned curves
// derived from them and the per-band series handed to plotting clients.
package lightcurve

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/lcarchive/internal/domain/band"
)

// Sentinel marks "no valid observation" in raw archive columns.
const Sentinel = -99.0

// IsSentinel reports whether v is the raw missing-data marker.
func IsSentinel(v float64) bool { return v == Sentinel }

// Table is an immutable set of named, equal-length float columns.
type Table struct {
	n     int
	names []string
	cols  map[string][]float64
}

// NewTable builds a Table from cols. The slices are owned by the table
// afterwards and must not be modified by the caller.
func NewTable(cols map[string][]float64) (*Table, error) {
	t := &Table{n: -1, cols: make(map[string][]float64, len(cols))}
	for name, c := range cols {
		if t.n >= 0 && len(c) != t.n {
			return nil, fmt.Errorf("%w: column %s has %d rows, want %d", ErrRaggedTable, name, len(c), t.n)
		}
		t.n = len(c)
		t.cols[name] = c
		t.names = append(t.names, name)
	}
	if t.n < 0 {
		t.n = 0
	}
	sort.Strings(t.names)
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.n }

// Names returns the column names in lexical order.
func (t *Table) Names() []string { return append([]string(nil), t.names...) }

// Has reports whether the table carries the named column.
func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Column returns the named column. The slice must be treated as read-only.
func (t *Table) Column(name string) ([]float64, bool) {
	c, ok := t.cols[name]
	return c, ok
}

// SortBy returns a copy of the table with every column reordered so that
// the named column is ascending. NaN keys go last. Ties keep their original
// order.
func (t *Table) SortBy(name string) (*Table, error) {
	key, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: no column %s", ErrMissingBand, name)
	}
	perm := make([]int, t.n)
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool {
		x, y := key[perm[a]], key[perm[b]]
		if math.IsNaN(x) {
			return false
		}
		return math.IsNaN(y) || x < y
	})

	out := &Table{n: t.n, names: t.Names(), cols: make(map[string][]float64, len(t.cols))}
	for col, vals := range t.cols {
		sorted := make([]float64, t.n)
		for i, p := range perm {
			sorted[i] = vals[p]
		}
		out.cols[col] = sorted
	}
	return out, nil
}

// Observations holds one band's raw columns.
type Observations struct {
	Band      band.Band
	MJD       []float64
	PSFMag    []float64
	PSFMagErr []float64
}

// Band extracts the raw columns for b.
func (t *Table) Band(b band.Band) (Observations, error) {
	obs := Observations{Band: b}
	for _, c := range []struct {
		name string
		dst  *[]float64
	}{
		{b.MJDColumn(), &obs.MJD},
		{b.PSFMagColumn(), &obs.PSFMag},
		{b.PSFMagErrColumn(), &obs.PSFMagErr},
	} {
		vals, ok := t.cols[c.name]
		if !ok {
			return Observations{}, fmt.Errorf("%w: %s (no column %s)", ErrMissingBand, b, c.name)
		}
		*c.dst = vals
	}
	return obs, nil
}
