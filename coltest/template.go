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

package coltest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/lakelime/lakelime"
)

// Template holds the contents of a completed column test template.
type Template struct {
	Parameters    Parameters
	Instantaneous []Row
	Overdosing    []Row
}

// Allowed values in a column test template.
var (
	ColumnLabels = []string{"A", "B", "C", "D", "E"}
	SampleDepths = []float64{0, 0.4, 0.8, 1.2, 1.6}
)

// ValidateTemplate checks that each variable in the template takes
// exactly the expected set of values.
func ValidateTemplate(t *Template) error {
	if err := t.Parameters.Validate(); err != nil {
		return err
	}
	get := func(rows []Row, f func(Row) float64) []float64 {
		o := make([]float64, len(rows))
		for i, r := range rows {
			o[i] = f(r)
		}
		return o
	}
	depth := func(r Row) float64 { return r.Depth }
	ph := func(r Row) float64 { return r.PH }
	dose := func(r Row) float64 { return r.LimeAdded }

	for _, c := range []struct {
		sheet, name string
		have        []float64
		want        []float64
	}{
		{"instantaneous_dissolution_data", "pH", get(t.Instantaneous, ph), lakelime.IDPH[:]},
		{"instantaneous_dissolution_data", "Depth_m", get(t.Instantaneous, depth), SampleDepths},
		{"overdosing_data", "pH", get(t.Overdosing, ph), []float64{lakelime.ReferencePH}},
		{"overdosing_data", "Lime_added_mg/l", get(t.Overdosing, dose), lakelime.ODDoses[:]},
		{"overdosing_data", "Depth_m", get(t.Overdosing, depth), SampleDepths},
	} {
		if u := uniqueFloats(c.have); !sameFloats(u, c.want) {
			return fmt.Errorf("coltest: %s: %s must only contain values %v (not %v): %w",
				c.sheet, c.name, c.want, u, lakelime.ErrInvalidInput)
		}
	}
	for sheet, rows := range map[string][]Row{
		"instantaneous_dissolution_data": t.Instantaneous,
		"overdosing_data":                t.Overdosing,
	} {
		if u := uniqueLabels(rows); strings.Join(u, ",") != strings.Join(ColumnLabels, ",") {
			return fmt.Errorf("coltest: %s: Column must only contain values %v (not %v): %w",
				sheet, ColumnLabels, u, lakelime.ErrInvalidInput)
		}
	}
	return nil
}

func uniqueFloats(v []float64) []float64 {
	s := append([]float64(nil), v...)
	sort.Float64s(s)
	var o []float64
	for _, x := range s {
		if len(o) == 0 || math.Abs(x-o[len(o)-1]) > matchTolerance {
			o = append(o, x)
		}
	}
	return o
}

func sameFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > matchTolerance {
			return false
		}
	}
	return true
}

func uniqueLabels(rows []Row) []string {
	set := make(map[string]bool)
	for _, r := range rows {
		set[r.Column] = true
	}
	o := make([]string, 0, len(set))
	for l := range set {
		o = append(o, l)
	}
	sort.Strings(o)
	return o
}
