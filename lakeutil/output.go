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
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Knetic/govaluate"
	"github.com/lakelime/lakelime"
	"github.com/xuri/excelize/v2"
)

// Outputter writes simulation results to a file.
type Outputter struct {
	fileName string
	names    []string
	exprs    map[string]*govaluate.EvaluableExpression
}

// DefaultOutputFuncs are the functions available in output variable
// expressions.
var DefaultOutputFuncs = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("lakelime: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log10": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("lakelime: got %d arguments for function 'log10', but needs 1", len(arg))
		}
		return math.Log10(arg[0].(float64)), nil
	},
	"caco3": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("lakelime: got %d arguments for function 'caco3', but needs 1", len(arg))
		}
		return arg[0].(float64) * lakelime.CaToCaCO3, nil
	},
}

// keyColumns precede the output variables in every output row.
var keyColumns = []string{"Product", "Month", "Date"}

// NewOutputter parses the output variable expressions. outputVariables
// maps column names to expressions of the result variables; the columns
// are written in alphabetical order after the Product, Month and Date
// columns. Files ending in ".xlsx" are written as Excel workbooks and
// all others as CSV.
func NewOutputter(fileName string, outputVariables map[string]string) (*Outputter, error) {
	o := &Outputter{
		fileName: fileName,
		exprs:    make(map[string]*govaluate.EvaluableExpression, len(outputVariables)),
	}
	for name, expr := range outputVariables {
		for _, k := range keyColumns {
			if strings.EqualFold(name, k) {
				return nil, fmt.Errorf("lakelime: output variable name %q is reserved: %w", name, lakelime.ErrInvalidArgument)
			}
		}
		e, err := govaluate.NewEvaluableExpressionWithFunctions(expr, DefaultOutputFuncs)
		if err != nil {
			return nil, fmt.Errorf("lakelime: parsing output variable %s = %q: %v", name, expr, err)
		}
		for _, v := range e.Vars() {
			if !isResultVariable(v) {
				return nil, fmt.Errorf("lakelime: output variable %s: unknown variable %q: %w", name, v, lakelime.ErrLookup)
			}
		}
		o.exprs[name] = e
		o.names = append(o.names, name)
	}
	sort.Strings(o.names)
	return o, nil
}

func isResultVariable(name string) bool {
	for _, v := range (&lakelime.Result{}).Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// Header returns the column names of the output table.
func (o *Outputter) Header() []string {
	return append(append([]string{}, keyColumns...), o.names...)
}

// Table calculates the output table for the given results, one row per
// output time of each result.
func (o *Outputter) Table(results ...*lakelime.Result) ([][]interface{}, error) {
	var t [][]interface{}
	params := make(map[string]interface{}, 4)
	for _, r := range results {
		for _, row := range r.Rows {
			params["Month"] = row.Month
			params["DeltaCa"] = row.DeltaCa
			params["Bottom"] = row.Bottom
			params["PH"] = row.PH
			line := []interface{}{r.Product, row.Month, row.Date}
			for _, name := range o.names {
				v, err := o.exprs[name].Evaluate(params)
				if err != nil {
					return nil, fmt.Errorf("lakelime: evaluating output variable %s: %v", name, err)
				}
				f, ok := v.(float64)
				if !ok {
					return nil, fmt.Errorf("lakelime: output variable %s is a %T, not a number", name, v)
				}
				line = append(line, f)
			}
			t = append(t, line)
		}
	}
	return t, nil
}

// Output writes the results to the output file.
func (o *Outputter) Output(results ...*lakelime.Result) error {
	t, err := o.Table(results...)
	if err != nil {
		return err
	}
	if strings.ToLower(filepath.Ext(o.fileName)) == ".xlsx" {
		return o.writeXLSX(t)
	}
	return o.writeCSV(t)
}

const dateFormat = "2006-01-02"

func (o *Outputter) writeCSV(t [][]interface{}) error {
	f, err := os.Create(o.fileName)
	if err != nil {
		return fmt.Errorf("lakelime: creating output file: %v", err)
	}
	w := csv.NewWriter(f)
	w.Write(o.Header())
	rec := make([]string, len(o.names)+3)
	for _, line := range t {
		for i, v := range line {
			switch x := v.(type) {
			case string:
				rec[i] = x
			case time.Time:
				rec[i] = x.Format(dateFormat)
			case float64:
				rec[i] = strconv.FormatFloat(x, 'g', -1, 64)
			}
		}
		w.Write(rec)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("lakelime: writing output file: %v", err)
	}
	return f.Close()
}

// setDimension records the used range of sheet, which has the given
// numbers of columns and rows starting at A1. The xlsx reader sizes
// sheets from this range, and excelize does not update it as cells are
// set.
func setDimension(f *excelize.File, sheet string, cols, rows int) error {
	if cols < 1 || rows < 1 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(cols, rows)
	if err != nil {
		return err
	}
	return f.SetSheetDimension(sheet, "A1:"+last)
}

func (o *Outputter) writeXLSX(t [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	set := func(col, row int, v interface{}) error {
		cell, err := excelize.CoordinatesToCellName(col+1, row+1)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}
	for j, h := range o.Header() {
		if err := set(j, 0, h); err != nil {
			return fmt.Errorf("lakelime: writing output file: %v", err)
		}
	}
	for i, line := range t {
		for j, v := range line {
			if d, ok := v.(time.Time); ok {
				v = d.Format(dateFormat)
			}
			if err := set(j, i+1, v); err != nil {
				return fmt.Errorf("lakelime: writing output file: %v", err)
			}
		}
	}
	if err := setDimension(f, sheet, len(o.Header()), len(t)+1); err != nil {
		return fmt.Errorf("lakelime: writing output file: %v", err)
	}
	if err := f.SaveAs(o.fileName); err != nil {
		return fmt.Errorf("lakelime: writing output file: %v", err)
	}
	return nil
}
