package dirarchive

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"

	"github.com/okian/lcarchive/internal/adapters/archive"
	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

// Write lays out a directory archive under root. Used by tests and by
// tooling that produces fixtures.
func Write(_ context.Context, root string, catalog *archive.Table, attrs map[string]string, curves map[string]*lightcurve.Table) error {
	if err := os.MkdirAll(filepath.Join(root, LightCurveDir), 0o755); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(root, CatalogFile), catalog.Header, catalog.Rows); err != nil {
		return err
	}
	if len(attrs) > 0 {
		doc := make(map[string]interface{}, len(attrs))
		for k, v := range attrs {
			doc[k] = v
		}
		b, err := yaml.Parser().Marshal(doc)
		if err != nil {
			return fmt.Errorf("attributes: %w", err)
		}
		if err := os.WriteFile(filepath.Join(root, AttributesFile), b, 0o644); err != nil {
			return err
		}
	}
	for key, t := range curves {
		names := t.Names()
		rows := make([][]string, t.Len())
		for r := range rows {
			rows[r] = make([]string, len(names))
			for c, name := range names {
				col, _ := t.Column(name)
				rows[r][c] = archive.FormatFloat(col[r])
			}
		}
		if err := writeCSV(filepath.Join(root, LightCurveDir, key+".csv"), names, rows); err != nil {
			return fmt.Errorf("light curve %s: %w", key, err)
		}
	}
	return nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
