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
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/kr/pretty"
	"github.com/lakelime/lakelime"
	"github.com/lakelime/lakelime/coltest"
	"github.com/xuri/excelize/v2"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

type sheet struct {
	name string
	rows [][]interface{}
}

// writeWorkbook creates an Excel file with the given sheets.
func writeWorkbook(t *testing.T, fileName string, sheets ...sheet) string {
	f := excelize.NewFile()
	defer f.Close()
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				t.Fatal(err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			t.Fatal(err)
		}
		cols := 0
		for r, row := range s.rows {
			if len(row) > cols {
				cols = len(row)
			}
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					t.Fatal(err)
				}
				if err := f.SetCellValue(s.name, cell, v); err != nil {
					t.Fatal(err)
				}
			}
		}
		if err := setDimension(f, s.name, cols, len(s.rows)); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), fileName)
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

// productSheet returns the default products in the product database
// layout.
func productSheet() sheet {
	products := lakelime.DefaultProducts()
	header := []interface{}{""}
	desc := []interface{}{descriptionField}
	for _, p := range products {
		header = append(header, p.Name)
		desc = append(desc, "Built-in product")
	}
	rows := [][]interface{}{header, desc}
	fields := []string{"CaPct", "MgPct", "DryFac", "ColDepth"}
	for i := range lakelime.IDPH {
		fields = append(fields, idField(i))
	}
	for i := range lakelime.ODDoses {
		fields = append(fields, odField(i))
	}
	for _, field := range fields {
		row := []interface{}{field}
		for i := range products {
			row = append(row, productFields(&products[i])[field])
		}
		rows = append(rows, row)
	}
	return sheet{name: "products", rows: rows}
}

func TestExcelProducts(t *testing.T) {
	path := writeWorkbook(t, "products.xlsx", productSheet())
	store, err := (&ExcelProducts{File: path}).Load()
	if err != nil {
		t.Fatal(err)
	}
	want, err := lakelime.DefaultProducts().Load()
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(store.Names(), want.Names()); len(diff) > 0 {
		t.Fatalf("names: %v", diff)
	}
	for _, name := range want.Names() {
		have, _ := store.Product(name)
		w, _ := want.Product(name)
		if have.ID != w.ID || have.OD != w.OD || have.CaPct != w.CaPct || have.MgPct != w.MgPct ||
			have.DryFactor != w.DryFactor || have.ColumnDepth != w.ColumnDepth {
			t.Errorf("%s: have %v, want %v", name, have, w)
		}
	}
}

func TestExcelProductsMissingField(t *testing.T) {
	s := productSheet()
	s.rows = s.rows[:len(s.rows)-1] // Remove OD85.
	path := writeWorkbook(t, "products.xlsx", s)
	_, err := (&ExcelProducts{File: path}).Load()
	if !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("have %v, want %v", err, lakelime.ErrInvalidInput)
	}
	if _, err = (&ExcelProducts{File: path, Sheet: "xxx"}).Load(); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("sheet: have %v, want %v", err, lakelime.ErrInvalidInput)
	}
}

func TestLoadFlowTypologies(t *testing.T) {
	rows := [][]interface{}{{monthField, "flat", "spring"}}
	// Write the months in reverse order to check that they are matched
	// by number.
	for m := 12; m >= 1; m-- {
		spring := 0.5
		if m == 5 {
			spring = 6.5
		}
		rows = append(rows, []interface{}{m, 1, spring})
	}
	path := writeWorkbook(t, "flow.xlsx", sheet{name: "flow", rows: rows})
	ft, err := LoadFlowTypologies(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(ft.Names(), []string{lakelime.FlatProfile, "flat", "spring"}); len(diff) > 0 {
		t.Errorf("names: %v", diff)
	}
	for m := 1; m <= 12; m++ {
		r, err := ft.Ratio("spring", m)
		if err != nil {
			t.Fatal(err)
		}
		want := 0.5
		if m == 5 {
			want = 6.5
		}
		if r != want {
			t.Errorf("month %d: have %g, want %g", m, r, want)
		}
	}

	rows[3][0] = 12 // Repeated month.
	path = writeWorkbook(t, "flow.xlsx", sheet{name: "flow", rows: rows})
	if _, err := LoadFlowTypologies(path); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("have %v, want %v", err, lakelime.ErrInvalidInput)
	}
}

func TestLoadTitrationCurves(t *testing.T) {
	rows := [][]interface{}{{tocClassField, phField, caco3Field}}
	want := lakelime.DefaultTitrationCurves()
	for _, band := range []string{lakelime.TOCLow, lakelime.TOCMedium, lakelime.TOCHigh} {
		c := want[band]
		for i := range c.PH {
			rows = append(rows, []interface{}{band, c.PH[i], c.CaCO3[i]})
		}
	}
	path := writeWorkbook(t, "titration.xlsx", sheet{name: "curves", rows: rows})
	have, err := LoadTitrationCurves(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(have, want); len(diff) > 0 {
		t.Error(diff)
	}
	pc, err := lakelime.NewPhConverter(have, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	if pc.Band != lakelime.TOCMedium || pc.PH(0) != 5 {
		t.Errorf("converter: band %q, pH(0) = %g", pc.Band, pc.PH(0))
	}
}

// templateSheets returns a column test template in the workbook layout.
// Concentrations increase linearly with depth, and the Mg
// concentrations are left blank.
func templateSheets() []sheet {
	params := sheet{name: parametersSheet, rows: [][]interface{}{
		{"Parameter", valueField},
		{"lime_product_name", "Test lime"},
		{"mass_lime_g", 0.5},
		{"water_vol_l", 10},
		{"lime_prod_ca_pct", 40},
		{"lime_prod_mg_pct", ""},
	}}
	inst := sheet{name: instantaneousSheet, rows: [][]interface{}{
		{columnField, phField, depthField, "Ca_mg/l", "Mg_mg/l"},
	}}
	od := sheet{name: overdosingSheet, rows: [][]interface{}{
		{columnField, phField, limeAddedField, depthField, "Ca_mg/l", "Mg_mg/l"},
	}}
	instMax := []float64{26.4, 25.2, 24, 23.2, 22.4}
	odFactor := []float64{1, 1, 1.1, 1.4, 2.3}
	for i, col := range coltest.ColumnLabels {
		for _, d := range coltest.SampleDepths {
			inst.rows = append(inst.rows, []interface{}{col, lakelime.IDPH[i], d, instMax[i] * d / 1.6})
			dose := lakelime.ODDoses[i]
			od.rows = append(od.rows, []interface{}{col, lakelime.ReferencePH, dose, d,
				0.8 * dose / odFactor[i] * d / 1.6})
		}
	}
	return []sheet{params, inst, od}
}

func TestLoadColumnTest(t *testing.T) {
	path := writeWorkbook(t, "template.xlsx", templateSheets()...)
	tmpl, err := LoadColumnTest(path)
	if err != nil {
		t.Fatal(err)
	}
	wantParams := coltest.Parameters{MassLimeG: 0.5, WaterVolL: 10, ProductName: "Test lime", CaPct: 40}
	if diff := pretty.Diff(tmpl.Parameters, wantParams); len(diff) > 0 {
		t.Errorf("parameters: %v", diff)
	}
	if len(tmpl.Instantaneous) != 25 || len(tmpl.Overdosing) != 25 {
		t.Fatalf("have %d and %d samples, want 25 and 25", len(tmpl.Instantaneous), len(tmpl.Overdosing))
	}
	r, err := coltest.Reduce(tmpl, coltest.Ca, coltest.Trapezoidal)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{66, 63, 60, 58, 56}
	for i, d := range r.Instantaneous {
		if different(d.DissolutionPct, want[i], 1e-10) {
			t.Errorf("column %s: have %g, want %g", d.Column, d.DissolutionPct, want[i])
		}
	}
}

func TestLoadColumnTestInvalid(t *testing.T) {
	sheets := templateSheets()
	sheets[1].rows[1][1] = 6.5 // pH not in the template.
	path := writeWorkbook(t, "template.xlsx", sheets...)
	if _, err := LoadColumnTest(path); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("pH: have %v, want %v", err, lakelime.ErrInvalidInput)
	}

	sheets = templateSheets()
	sheets[0].rows = sheets[0].rows[:3] // No water volume.
	path = writeWorkbook(t, "template.xlsx", sheets...)
	if _, err := LoadColumnTest(path); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("parameters: have %v, want %v", err, lakelime.ErrInvalidInput)
	}

	path = writeWorkbook(t, "template.xlsx", sheets[1:]...)
	if _, err := LoadColumnTest(path); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("sheet: have %v, want %v", err, lakelime.ErrInvalidInput)
	}
}

func TestLoadColumnTestCaOnly(t *testing.T) {
	sheets := templateSheets()
	for _, s := range sheets[1:] {
		s.rows[0] = s.rows[0][:len(s.rows[0])-1] // Drop the Mg column.
	}
	path := writeWorkbook(t, "template.xlsx", sheets...)
	tmpl, err := LoadColumnTest(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, rows := range [][]coltest.Row{tmpl.Instantaneous, tmpl.Overdosing} {
		for _, r := range rows {
			if r.Mg != 0 {
				t.Fatalf("column %s at %g m: have Mg %g, want 0", r.Column, r.Depth, r.Mg)
			}
		}
	}
	r, err := coltest.Reduce(tmpl, coltest.Ca, coltest.Trapezoidal)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{66, 63, 60, 58, 56}
	for i, d := range r.Instantaneous {
		if different(d.DissolutionPct, want[i], 1e-10) {
			t.Errorf("column %s: have %g, want %g", d.Column, d.DissolutionPct, want[i])
		}
	}

	for _, s := range sheets[1:] {
		s.rows[0] = s.rows[0][:len(s.rows[0])-1] // Drop the Ca column too.
	}
	path = writeWorkbook(t, "template.xlsx", sheets...)
	if _, err := LoadColumnTest(path); !errors.Is(err, lakelime.ErrInvalidInput) {
		t.Errorf("have %v, want %v", err, lakelime.ErrInvalidInput)
	}
}
