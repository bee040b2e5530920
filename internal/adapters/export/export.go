// Package export renders retrieved light curves as CSV or XLSX tables using
// the mjd_<b>, dered_<b>, psfmagerr_<b> and datetime_<b> column layout.
// Missing values become empty cells.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/lcarchive/internal/domain/lightcurve"
)

// Sheet names used in XLSX output.
const (
	CurveSheet = "lightcurve"
	MetaSheet  = "meta"
)

// Content types.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// cells returns the curve row by row. Present values are float64 or
// time.Time; missing values are nil.
func cells(c *lightcurve.Curve) [][]any {
	rows := make([][]any, c.Rows)
	for r := range rows {
		row := make([]any, 0, len(c.Columns()))
		for _, bc := range c.Bands {
			row = append(row, value(bc.MJD[r]), value(bc.Dered[r]), value(bc.PSFMagErr[r]))
			if c.Datetime {
				if t := bc.Datetime[r]; t.Valid {
					row = append(row, t.Time)
				} else {
					row = append(row, nil)
				}
			}
		}
		rows[r] = row
	}
	return rows
}

func value(v lightcurve.Value) any {
	if !v.Valid {
		return nil
	}
	return v.Float
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(x)
	}
}

// WriteCSV writes c as CSV with a header row.
func WriteCSV(w io.Writer, c *lightcurve.Curve) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(c.Columns()); err != nil {
		return err
	}
	for _, row := range cells(c) {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = format(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes c as a workbook with the curve on one sheet and the
// object and filter summary on another.
func WriteXLSX(w io.Writer, c *lightcurve.Curve) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), CurveSheet); err != nil {
		return err
	}
	header := c.Columns()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(CurveSheet, "A1", &headerRow); err != nil {
		return err
	}
	for r, row := range cells(c) {
		for i, v := range row {
			if t, ok := v.(time.Time); ok {
				row[i] = t.Format(time.RFC3339Nano)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(CurveSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(MetaSheet); err != nil {
		return err
	}
	meta := [][]any{
		{"train_id", c.TrainID},
		{"class", c.Class},
		{"source", c.Source},
		{"rows", c.Rows},
		{"clipped", c.Clipped},
	}
	for _, bc := range c.Bands {
		if bc.Clip == nil {
			continue
		}
		meta = append(meta,
			[]any{"threshold_" + bc.Band.String(), bc.Clip.Threshold},
			[]any{"masked_" + bc.Band.String(), bc.Clip.Masked},
		)
	}
	for r, row := range meta {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MetaSheet, cell, &row); err != nil {
			return err
		}
	}

	_, err := f.WriteTo(w)
	return err
}
