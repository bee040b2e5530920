package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/pkg/metrics"
)

// MemoryStore is an immutable in-memory Store. It is safe for concurrent
// use once Load returns.
type MemoryStore struct {
	byID    map[int64]*Record
	ids     []IDEntry
	sources []string
	bySrc   map[string][]int64
	tables  map[string]*archive.Table
}

var _ Store = (*MemoryStore)(nil)

// Load indexes the given catalogs. Every table must carry train_id, the
// extinction column of every band and its source's key column; train IDs
// must be unique across all tables.
func Load(ctx context.Context, tables ...Table) (*MemoryStore, error) {
	s := &MemoryStore{
		byID:   make(map[int64]*Record),
		bySrc:  make(map[string][]int64, len(tables)),
		tables: make(map[string]*archive.Table, len(tables)),
	}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.add(t); err != nil {
			return nil, err
		}
	}

	s.ids = make([]IDEntry, 0, len(s.byID))
	for id, r := range s.byID {
		s.ids = append(s.ids, IDEntry{TrainID: id, Type: r.Class})
	}
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i].TrainID < s.ids[j].TrainID })

	for _, name := range s.sources {
		metrics.UpdateCatalogSize(name, len(s.bySrc[name]))
	}
	return s, nil
}

func (s *MemoryStore) add(t Table) error {
	src := t.Source
	if src.Name == "" {
		return fmt.Errorf("%w: catalog without a source name", archive.ErrInvalidArchive)
	}
	if _, dup := s.tables[src.Name]; dup {
		return fmt.Errorf("%w: catalog %s loaded twice", archive.ErrInvalidArchive, src.Name)
	}
	if t.Catalog == nil {
		return fmt.Errorf("%w: catalog %s is empty", archive.ErrInvalidArchive, src.Name)
	}
	cat := t.Catalog

	idCol, err := columnIndex(cat, src.Name, TrainIDColumn)
	if err != nil {
		return err
	}
	keyCol, err := columnIndex(cat, src.Name, src.KeyColumn)
	if err != nil {
		return err
	}
	extCols := make(map[band.Band]int, len(band.All))
	for _, b := range band.All {
		if extCols[b], err = columnIndex(cat, src.Name, b.ExtinctionColumn()); err != nil {
			return err
		}
	}
	labelCol := -1
	if src.LabelColumn != "" {
		if i, ok := cat.Index(src.LabelColumn); ok {
			labelCol = i
		}
	}
	crossCols := crossIDColumns(cat)

	ids := make([]int64, 0, cat.Len())
	for r, row := range cat.Rows {
		id, err := parseID(row[idCol])
		if err != nil {
			return fmt.Errorf("%w: %s row %d: train_id %q: %w", archive.ErrInvalidArchive, src.Name, r+1, row[idCol], err)
		}
		if prev, dup := s.byID[id]; dup {
			return fmt.Errorf("%w: train_id %d in both %s and %s", archive.ErrInvalidArchive, id, prev.Source, src.Name)
		}

		rec := &Record{
			TrainID:       id,
			Class:         src.Class,
			Source:        src.Name,
			Extinction:    make(map[band.Band]float64, len(extCols)),
			LightCurveKey: normalizeKey(row[keyCol]),
			Columns:       row,
		}
		if rec.LightCurveKey == "" {
			return fmt.Errorf("%w: %s row %d: empty %s", archive.ErrInvalidArchive, src.Name, r+1, src.KeyColumn)
		}
		for b, c := range extCols {
			v, err := archive.ParseFloat(row[c])
			if err != nil {
				return fmt.Errorf("%w: %s row %d: %s %q: %w", archive.ErrInvalidArchive, src.Name, r+1, b.ExtinctionColumn(), row[c], err)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: %s row %d: %s %q is not a finite number", archive.ErrInvalidArchive, src.Name, r+1, b.ExtinctionColumn(), row[c])
			}
			rec.Extinction[b] = v
		}
		if labelCol >= 0 {
			rec.Label = strings.TrimSpace(row[labelCol])
		}
		if len(crossCols) > 0 {
			rec.CrossIDs = make(map[string]string, len(crossCols))
			for name, c := range crossCols {
				rec.CrossIDs[name] = normalizeKey(row[c])
			}
		}

		s.byID[id] = rec
		ids = append(ids, id)
	}

	s.sources = append(s.sources, src.Name)
	s.bySrc[src.Name] = ids
	s.tables[src.Name] = cat
	return nil
}

func columnIndex(cat *archive.Table, source, column string) (int, error) {
	i, ok := cat.Index(column)
	if !ok {
		return 0, fmt.Errorf("%w: %s catalog lacks column %s", archive.ErrInvalidArchive, source, column)
	}
	return i, nil
}

func crossIDColumns(cat *archive.Table) map[string]int {
	out := make(map[string]int)
	for i, h := range cat.Header {
		if h != TrainIDColumn && strings.HasSuffix(h, "_id") {
			out[h] = i
		}
	}
	return out
}

// parseID accepts integers and integral floats such as "12.0".
func parseID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("not an integer")
	}
	return int64(f), nil
}

// normalizeKey strips whitespace and a trailing ".0" left by float
// formatted integer ids.
func normalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if id, err := parseID(s); err == nil {
		return strconv.FormatInt(id, 10)
	}
	return s
}

// Lookup implements Store. The record is a copy; changing it does not
// affect the store.
func (s *MemoryStore) Lookup(_ context.Context, id int64) (Record, error) {
	r, ok := s.byID[id]
	if !ok {
		metrics.RecordLookup(false)
		return Record{}, fmt.Errorf("%w: %d", ErrUnknownObjectID, id)
	}
	metrics.RecordLookup(true)
	return r.Clone(), nil
}

// Extinction implements Store.
func (s *MemoryStore) Extinction(ctx context.Context, id int64, b band.Band) (float64, error) {
	r, err := s.Lookup(ctx, id)
	if err != nil {
		return 0, err
	}
	v, ok := r.Extinction[b]
	if !ok {
		return 0, fmt.Errorf("%w: %s", band.ErrUnknownBand, b)
	}
	return v, nil
}

// Contains implements Store.
func (s *MemoryStore) Contains(_ context.Context, id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// IDs implements Store. The returned slice is a copy.
func (s *MemoryStore) IDs(_ context.Context) []IDEntry {
	return append([]IDEntry(nil), s.ids...)
}

// Records implements Store. Each record is a copy.
func (s *MemoryStore) Records(_ context.Context, source string) ([]Record, error) {
	ids, ok := s.bySrc[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = s.byID[id].Clone()
	}
	return out, nil
}

// Catalog implements Store.
func (s *MemoryStore) Catalog(_ context.Context, source string) (*archive.Table, error) {
	t, ok := s.tables[source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	return t, nil
}

// Sources implements Store.
func (s *MemoryStore) Sources(_ context.Context) []string {
	return append([]string(nil), s.sources...)
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int { return len(s.byID) }

// LightCurveKey implements Store.
func (s *MemoryStore) LightCurveKey(ctx context.Context, id int64) (string, error) {
	r, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return r.LightCurveKey, nil
}
