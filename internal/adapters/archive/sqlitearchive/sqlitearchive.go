// Package sqlitearchive stores a catalog, its column descriptions and the
// light curves of its objects in a single SQLite file.
package sqlitearchive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/domain/band"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

const insertBatch = 500

// Archive is an archive.Archive over an SQLite database.
type Archive struct {
	db   *gorm.DB
	path string
}

var _ archive.Archive = (*Archive)(nil)

func openDB(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

// Open opens an existing archive file.
func Open(path string) (*Archive, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %w", archive.ErrInvalidArchive, err)
	}
	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", archive.ErrInvalidArchive, path, err)
	}
	a := &Archive{db: db, path: path}
	for _, m := range models {
		if !db.Migrator().HasTable(m) {
			_ = a.Close()
			return nil, fmt.Errorf("%w: %s lacks table for %T", archive.ErrInvalidArchive, path, m)
		}
	}
	return a, nil
}

// Path returns the database file.
func (a *Archive) Path() string { return a.path }

// Catalog implements archive.Archive.
func (a *Archive) Catalog(ctx context.Context) (*archive.Table, error) {
	var cols []catalogColumn
	if err := a.db.WithContext(ctx).Order("position").Find(&cols).Error; err != nil {
		return nil, fmt.Errorf("catalog columns: %w", err)
	}
	var rows []catalogRow
	if err := a.db.WithContext(ctx).Order("position").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("catalog rows: %w", err)
	}

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}
	cells := make([][]string, len(rows))
	for i, r := range rows {
		if err := json.Unmarshal([]byte(r.Cells), &cells[i]); err != nil {
			return nil, fmt.Errorf("%w: catalog row %d: %w", archive.ErrInvalidArchive, r.Position, err)
		}
	}
	return archive.NewTable(header, cells)
}

// Attributes implements archive.Archive.
func (a *Archive) Attributes(ctx context.Context) (map[string]string, error) {
	var attrs []columnAttr
	if err := a.db.WithContext(ctx).Find(&attrs).Error; err != nil {
		return nil, fmt.Errorf("column attributes: %w", err)
	}
	out := make(map[string]string, len(attrs))
	for _, at := range attrs {
		out[at.Name] = at.Description
	}
	return out, nil
}

// LightCurve implements archive.Archive.
func (a *Archive) LightCurve(ctx context.Context, key string) (*lightcurve.Table, error) {
	var obs []observation
	err := a.db.WithContext(ctx).
		Where("lc_key = ?", key).
		Order("band").Order("epoch").
		Find(&obs).Error
	if err != nil {
		return nil, fmt.Errorf("observations %s: %w", key, err)
	}
	if len(obs) == 0 {
		return nil, fmt.Errorf("%w: key %s", archive.ErrLightCurveNotFound, key)
	}

	rows := 0
	for _, o := range obs {
		if o.Epoch < 0 || o.Epoch >= len(obs) {
			return nil, fmt.Errorf("%w: key %s band %s: epoch %d out of range", archive.ErrInvalidArchive, key, o.Band, o.Epoch)
		}
		rows = max(rows, o.Epoch+1)
	}
	cols := make(map[string][]float64)
	filled := make(map[band.Band]int)
	for _, o := range obs {
		b, err := band.Parse(o.Band)
		if err != nil {
			return nil, fmt.Errorf("%w: key %s: %w", archive.ErrInvalidArchive, key, err)
		}
		if _, ok := cols[b.MJDColumn()]; !ok {
			cols[b.MJDColumn()] = nanColumn(rows)
			cols[b.PSFMagColumn()] = nanColumn(rows)
			cols[b.PSFMagErrColumn()] = nanColumn(rows)
		}
		cols[b.MJDColumn()][o.Epoch] = fromNullable(o.MJD)
		cols[b.PSFMagColumn()][o.Epoch] = fromNullable(o.PSFMag)
		cols[b.PSFMagErrColumn()][o.Epoch] = fromNullable(o.PSFMagErr)
		filled[b]++
	}
	for b, n := range filled {
		if n != rows {
			return nil, fmt.Errorf("%w: key %s band %s has %d of %d rows", archive.ErrInvalidArchive, key, b, n, rows)
		}
	}
	return lightcurve.NewTable(cols)
}

// Close implements archive.Archive.
func (a *Archive) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Write creates a new archive file at path. An existing file is an error;
// a partially written file is removed.
func Write(ctx context.Context, path string, catalog *archive.Table, attrs map[string]string, curves map[string]*lightcurve.Table) (err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("%s already exists", path)
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	db, err := openDB(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	a := &Archive{db: db, path: path}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cols := make([]catalogColumn, len(catalog.Header))
		for i, h := range catalog.Header {
			cols[i] = catalogColumn{Position: i, Name: h}
		}
		if len(cols) > 0 {
			if err := tx.CreateInBatches(cols, insertBatch).Error; err != nil {
				return fmt.Errorf("catalog columns: %w", err)
			}
		}

		rows := make([]catalogRow, len(catalog.Rows))
		for i, r := range catalog.Rows {
			b, err := json.Marshal(r)
			if err != nil {
				return err
			}
			rows[i] = catalogRow{Position: i, Cells: string(b)}
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, insertBatch).Error; err != nil {
				return fmt.Errorf("catalog rows: %w", err)
			}
		}

		for name, desc := range attrs {
			if err := tx.Create(&columnAttr{Name: name, Description: desc}).Error; err != nil {
				return fmt.Errorf("column attribute %s: %w", name, err)
			}
		}

		for key, t := range curves {
			obs, err := observations(key, t)
			if err != nil {
				return err
			}
			if len(obs) == 0 {
				continue
			}
			if err := tx.CreateInBatches(obs, insertBatch).Error; err != nil {
				return fmt.Errorf("observations %s: %w", key, err)
			}
		}
		return nil
	})
}

func observations(key string, t *lightcurve.Table) ([]observation, error) {
	var out []observation
	for _, b := range band.All {
		obs, err := t.Band(b)
		if errors.Is(err, lightcurve.ErrMissingBand) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for i := range obs.MJD {
			out = append(out, observation{
				Key:       key,
				Band:      b.String(),
				Epoch:     i,
				MJD:       toNullable(obs.MJD[i]),
				PSFMag:    toNullable(obs.PSFMag[i]),
				PSFMagErr: toNullable(obs.PSFMagErr[i]),
			})
		}
	}
	return out, nil
}

func nanColumn(n int) []float64 {
	c := make([]float64, n)
	for i := range c {
		c[i] = math.NaN()
	}
	return c
}

func toNullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func fromNullable(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
