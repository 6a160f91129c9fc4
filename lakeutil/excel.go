/*
Copyright © 2024 the LakeLime authors.
This file is part of LakeLime.

LakeLime is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

LakeLime is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with LakeLime.  If not, see <http://www.gnu.org/licenses/>.
*/

package lakeutil

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/lakelime/lakelime"
	"github.com/lakelime/lakelime/coltest"
	"github.com/tealeg/xlsx"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads an Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("lakelime: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(100))
	})
	r := excelCache.NewRequest(context.Background(), fileName, fileName)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// table is the contents of a worksheet whose first row holds column
// names.
type table struct {
	file, sheet string
	header      map[string]int
	names       []string
	rows        [][]string
}

// readTable reads the named sheet of an Excel file, or the first sheet
// if sheet is empty. Blank rows are skipped.
func readTable(fileName, sheet string) (*table, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, fmt.Errorf("lakelime: %s has no sheets: %w", fileName, lakelime.ErrInvalidInput)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, fmt.Errorf("lakelime: %s has no sheet %q: %w", fileName, sheet, lakelime.ErrInvalidInput)
		}
	}
	t := &table{file: fileName, sheet: s.Name, header: make(map[string]int)}
	for _, row := range s.Rows {
		if row == nil {
			continue
		}
		vals := make([]string, len(row.Cells))
		blank := true
		for i, c := range row.Cells {
			if c != nil {
				vals[i] = strings.TrimSpace(c.Value)
			}
			if vals[i] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if t.names == nil {
			t.names = vals
			for i, n := range vals {
				t.header[n] = i
			}
			continue
		}
		t.rows = append(t.rows, vals)
	}
	if t.names == nil {
		return nil, fmt.Errorf("lakelime: %s sheet %q is empty: %w", fileName, t.sheet, lakelime.ErrInvalidInput)
	}
	return t, nil
}

// str returns the value in the named column of row.
func (t *table) str(row []string, col string) (string, error) {
	i, ok := t.header[col]
	if !ok {
		return "", fmt.Errorf("lakelime: %s sheet %q has no column %q: %w", t.file, t.sheet, col, lakelime.ErrInvalidInput)
	}
	if i >= len(row) {
		return "", nil
	}
	return row[i], nil
}

// float returns the number in the named column of row. Blank cells are
// an error unless blankZero is true, in which case they are read as 0.
func (t *table) float(row []string, col string, blankZero bool) (float64, error) {
	s, err := t.str(row, col)
	if err != nil {
		return 0, err
	}
	if s == "" && blankZero {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("lakelime: %s sheet %q column %q: invalid number %q: %w",
			t.file, t.sheet, col, s, lakelime.ErrInvalidInput)
	}
	return v, nil
}

// ExcelProducts is a ProductRepository that reads an Excel workbook with
// one row per product field (CaPct, MgPct, DryFac, ColDepth, IDph40 to
// IDph60 and OD10 to OD85) and one column per product. The first column
// holds the field names. A Description row, if present, is ignored.
type ExcelProducts struct {
	File string

	// Sheet is the worksheet holding the products. If it is empty the
	// first sheet is used.
	Sheet string
}

// Load implements lakelime.ProductRepository.
func (e *ExcelProducts) Load() (*lakelime.ProductCurveStore, error) {
	t, err := readTable(e.File, e.Sheet)
	if err != nil {
		return nil, err
	}
	fields := make(map[string][]string)
	for _, row := range t.rows {
		if row[0] == "" || row[0] == descriptionField {
			continue
		}
		fields[row[0]] = row
	}
	var products []lakelime.LimeProduct
	for i, name := range t.names {
		if i == 0 || name == "" {
			continue
		}
		p, err := productFromFields(name, func(field string) (float64, error) {
			row, ok := fields[field]
			if !ok {
				return 0, fmt.Errorf("lakelime: %s has no row %q: %w", e.File, field, lakelime.ErrInvalidInput)
			}
			var s string
			if i < len(row) {
				s = row[i]
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return 0, fmt.Errorf("lakelime: %s: product %q: invalid %s %q: %w",
					e.File, name, field, s, lakelime.ErrInvalidInput)
			}
			return v, nil
		})
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("lakelime: %s contains no products: %w", e.File, lakelime.ErrInvalidInput)
	}
	return lakelime.NewProductCurveStore(products...)
}

// LoadFlowTypologies reads flow typologies from the first sheet of an
// Excel file. The sheet has a Month column holding the calendar months 1
// to 12 and one column of flow ratios per typology.
func LoadFlowTypologies(fileName string) (lakelime.FlowTypologies, error) {
	t, err := readTable(fileName, "")
	if err != nil {
		return nil, err
	}
	if len(t.rows) != 12 {
		return nil, fmt.Errorf("lakelime: %s: flow typologies must have 12 months (have %d): %w",
			fileName, len(t.rows), lakelime.ErrInvalidInput)
	}
	ft := make(map[string][12]float64)
	seen := make(map[int]bool)
	for _, row := range t.rows {
		mf, err := t.float(row, monthField, false)
		if err != nil {
			return nil, err
		}
		m := int(mf)
		if float64(m) != mf || m < 1 || m > 12 || seen[m] {
			return nil, fmt.Errorf("lakelime: %s: invalid or repeated month %g: %w", fileName, mf, lakelime.ErrInvalidInput)
		}
		seen[m] = true
		for _, name := range t.names {
			if name == monthField || name == "" {
				continue
			}
			v, err := t.float(row, name, false)
			if err != nil {
				return nil, err
			}
			ratios := ft[name]
			ratios[m-1] = v
			ft[name] = ratios
		}
	}
	return lakelime.NewFlowTypologies(ft)
}

// Titration curve table columns.
const (
	tocClassField = "TOC class (mg/l)"
	phField       = "pH"
	caco3Field    = "CaCO3 (mg/l)"
)

// LoadTitrationCurves reads titration curves from the first sheet of an
// Excel file. Each row holds a TOC class label, a pH and the matching
// CaCO3 concentration.
func LoadTitrationCurves(fileName string) (lakelime.TitrationCurves, error) {
	t, err := readTable(fileName, "")
	if err != nil {
		return nil, err
	}
	tc := make(lakelime.TitrationCurves)
	for _, row := range t.rows {
		band, err := t.str(row, tocClassField)
		if err != nil {
			return nil, err
		}
		ph, err := t.float(row, phField, false)
		if err != nil {
			return nil, err
		}
		caco3, err := t.float(row, caco3Field, false)
		if err != nil {
			return nil, err
		}
		c := tc[band]
		c.PH = append(c.PH, ph)
		c.CaCO3 = append(c.CaCO3, caco3)
		tc[band] = c
	}
	return tc, nil
}

// Column test template sheets and columns.
const (
	parametersSheet    = "parameters"
	instantaneousSheet = "instantaneous_dissolution_data"
	overdosingSheet    = "overdosing_data"

	valueField     = "Value"
	columnField    = "Column"
	depthField     = "Depth_m"
	limeAddedField = "Lime_added_mg/l"
)

// LoadColumnTest reads and validates a completed column test template.
func LoadColumnTest(fileName string) (*coltest.Template, error) {
	par, err := readTable(fileName, parametersSheet)
	if err != nil {
		return nil, err
	}
	params := make(map[string][]string)
	for _, row := range par.rows {
		params[row[0]] = row
	}
	getParam := func(name string) (string, error) {
		row, ok := params[name]
		if !ok {
			return "", fmt.Errorf("lakelime: %s: missing parameter %q: %w", fileName, name, lakelime.ErrInvalidInput)
		}
		return par.str(row, valueField)
	}
	getNumber := func(name string) (float64, error) {
		s, err := getParam(name)
		if err != nil || s == "" {
			return 0, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("lakelime: %s: parameter %q: invalid number %q: %w",
				fileName, name, s, lakelime.ErrInvalidInput)
		}
		return v, nil
	}

	tmpl := new(coltest.Template)
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"mass_lime_g", &tmpl.Parameters.MassLimeG},
		{"water_vol_l", &tmpl.Parameters.WaterVolL},
		{"lime_prod_ca_pct", &tmpl.Parameters.CaPct},
		{"lime_prod_mg_pct", &tmpl.Parameters.MgPct},
	} {
		if *p.dst, err = getNumber(p.name); err != nil {
			return nil, err
		}
	}
	if tmpl.Parameters.ProductName, err = getParam("lime_product_name"); err != nil {
		return nil, err
	}

	if tmpl.Instantaneous, err = readColumnData(fileName, instantaneousSheet, false); err != nil {
		return nil, err
	}
	if tmpl.Overdosing, err = readColumnData(fileName, overdosingSheet, true); err != nil {
		return nil, err
	}
	if err = coltest.ValidateTemplate(tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// readColumnData reads the samples on one column test sheet. Blank
// concentrations are read as 0, as are the concentrations of an element
// whose column is absent. At least one element column is required.
func readColumnData(fileName, sheet string, overdosing bool) ([]coltest.Row, error) {
	t, err := readTable(fileName, sheet)
	if err != nil {
		return nil, err
	}
	caCol, mgCol := string(coltest.Ca)+"_mg/l", string(coltest.Mg)+"_mg/l"
	_, hasCa := t.header[caCol]
	_, hasMg := t.header[mgCol]
	if !hasCa && !hasMg {
		return nil, fmt.Errorf("lakelime: %s sheet %q has neither a %s nor a %s column: %w",
			fileName, t.sheet, caCol, mgCol, lakelime.ErrInvalidInput)
	}
	rows := make([]coltest.Row, len(t.rows))
	for i, row := range t.rows {
		r := &rows[i]
		if r.Column, err = t.str(row, columnField); err != nil {
			return nil, err
		}
		for _, f := range []struct {
			col       string
			dst       *float64
			blankZero bool
			present   bool
		}{
			{phField, &r.PH, false, true},
			{depthField, &r.Depth, false, true},
			{caCol, &r.Ca, true, hasCa},
			{mgCol, &r.Mg, true, hasMg},
		} {
			if !f.present {
				continue
			}
			if *f.dst, err = t.float(row, f.col, f.blankZero); err != nil {
				return nil, err
			}
		}
		if overdosing {
			if r.LimeAdded, err = t.float(row, limeAddedField, false); err != nil {
				return nil, err
			}
		}
	}
	return rows, nil
}
