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
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/kr/pretty"
	"github.com/lakelime/lakelime"
	"github.com/xuri/excelize/v2"
)

func testResult() *lakelime.Result {
	r := &lakelime.Result{Product: "SK2"}
	for i, ph := range []float64{4.5, 5.2, 5.0} {
		m := float64(i) / 2
		r.Rows = append(r.Rows, lakelime.Row{
			Month:   m,
			Date:    lakelime.MonthDate(m),
			DeltaCa: float64(i),
			Bottom:  1 - float64(i)/4,
			PH:      ph,
		})
	}
	return r
}

func TestOutputterTable(t *testing.T) {
	o, err := NewOutputter("", map[string]string{
		"pH":     "PH",
		"CaCO3":  "caco3(DeltaCa)",
		"Total":  "DeltaCa + Bottom",
		"HPlus":  "exp(-PH * 2.302585092994046)",
		"Log10":  "log10(DeltaCa + 1)",
		"Double": "2 * DeltaCa",
	})
	if err != nil {
		t.Fatal(err)
	}
	wantHeader := []string{"Product", "Month", "Date", "CaCO3", "Double", "HPlus", "Log10", "Total", "pH"}
	if diff := pretty.Diff(o.Header(), wantHeader); len(diff) > 0 {
		t.Fatalf("header: %v", diff)
	}
	r := testResult()
	table, err := o.Table(r, r)
	if err != nil {
		t.Fatal(err)
	}
	if len(table) != 6 {
		t.Fatalf("have %d rows, want 6", len(table))
	}
	row := table[1]
	if row[0] != "SK2" || row[1] != 0.5 || row[2] != lakelime.MonthDate(0.5) {
		t.Errorf("row start: %v", row[:3])
	}
	want := []float64{lakelime.CaToCaCO3, 2, 1.0e-5 * 0.630957344480193, 0.3010299956639812, 1.75, 5.2}
	for i, w := range want {
		if different(row[i+3].(float64), w, 1e-10) {
			t.Errorf("%s: have %g, want %g", wantHeader[i+3], row[i+3], w)
		}
	}
}

func TestOutputterErrors(t *testing.T) {
	if _, err := NewOutputter("", map[string]string{"x": "DeltaCa +"}); err == nil {
		t.Error("invalid expression should cause an error")
	}
	if _, err := NewOutputter("", map[string]string{"x": "Alkalinity * 2"}); !errors.Is(err, lakelime.ErrLookup) {
		t.Errorf("unknown variable: have %v, want %v", err, lakelime.ErrLookup)
	}
	o, err := NewOutputter("", map[string]string{"x": "PH > 5"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := o.Table(testResult()); err == nil {
		t.Error("boolean output variable should cause an error")
	}
}

func TestOutputCSV(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.csv")
	o, err := NewOutputter(file, map[string]string{"pH": "PH"})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Output(testResult()); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Product", "Month", "Date", "pH"},
		{"SK2", "0", "2000-01-01", "4.5"},
		{"SK2", "0.5", "2000-01-16", "5.2"},
		{"SK2", "1", "2000-01-31", "5"},
	}
	if diff := pretty.Diff(recs, want); len(diff) > 0 {
		t.Error(diff)
	}
}

func TestOutputXLSX(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.xlsx")
	o, err := NewOutputter(file, map[string]string{"pH": "PH"})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Output(testResult()); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(file)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("have %d rows, want 4", len(rows))
	}
	if diff := pretty.Diff(rows[0], []string{"Product", "Month", "Date", "pH"}); len(diff) > 0 {
		t.Error(diff)
	}
	ph, err := strconv.ParseFloat(rows[2][3], 64)
	if err != nil {
		t.Fatal(err)
	}
	if ph != 5.2 || rows[2][2] != "2000-01-16" {
		t.Errorf("have %v, want pH 5.2 on 2000-01-16", rows[2])
	}
}

func TestOutputXLSXReadBack(t *testing.T) {
	file := filepath.Join(t.TempDir(), "out.xlsx")
	o, err := NewOutputter(file, map[string]string{"pH": "PH", "Total": "DeltaCa + Bottom"})
	if err != nil {
		t.Fatal(err)
	}
	if err := o.Output(testResult(), testResult()); err != nil {
		t.Fatal(err)
	}
	tbl, err := readTable(file, "")
	if err != nil {
		t.Fatal(err)
	}
	if diff := pretty.Diff(tbl.names, o.Header()); len(diff) > 0 {
		t.Errorf("header: %v", diff)
	}
	if len(tbl.rows) != 6 {
		t.Fatalf("have %d rows, want 6", len(tbl.rows))
	}
	for i, r := range tbl.rows {
		ph, err := tbl.float(r, "pH", false)
		if err != nil {
			t.Fatal(err)
		}
		if want := []float64{4.5, 5.2, 5.0}[i%3]; different(ph, want, 1e-10) {
			t.Errorf("row %d: have pH %g, want %g", i, ph, want)
		}
		if r[0] != "SK2" {
			t.Errorf("row %d: have product %q", i, r[0])
		}
	}
}

func TestOutputterReservedName(t *testing.T) {
	for _, name := range []string{"Product", "month", "DATE"} {
		_, err := NewOutputter("", map[string]string{name: "PH"})
		if !errors.Is(err, lakelime.ErrInvalidArgument) {
			t.Errorf("%s: have %v, want %v", name, err, lakelime.ErrInvalidArgument)
		}
	}
}
