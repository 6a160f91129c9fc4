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

	"github.com/lakelime/lakelime"
)

// Element is a chemical element measured in a column test.
type Element string

// Measured elements.
const (
	Ca Element = "Ca"
	Mg Element = "Mg"
)

// Row is one sample from a column test.
type Row struct {
	Column    string  // Column label (A-E)
	PH        float64 // pH of the column
	Depth     float64 // Sample depth [m]
	Ca, Mg    float64 // Concentrations at Depth [mg/l]
	LimeAdded float64 // Lime dose of the column [mg/l]; overdosing test only
}

func (r Row) conc(e Element) (float64, error) {
	switch e {
	case Ca:
		return r.Ca, nil
	case Mg:
		return r.Mg, nil
	default:
		return math.NaN(), fmt.Errorf("coltest: invalid element %q; valid options are 'Ca' and 'Mg': %w",
			e, lakelime.ErrInvalidArgument)
	}
}

// Dissolution is the instantaneous dissolution measured in one column.
type Dissolution struct {
	Column         string
	PH             float64
	DissolutionPct float64
}

// OverdosingFactor is the overdosing factor measured in one column.
type OverdosingFactor struct {
	Column    string
	LimeAdded float64 // [mg/l]
	Factor    float64 // [-]
}

// columns groups rows by column label and sorts each group by depth.
// Labels are returned in sorted order.
func columns(rows []Row) ([]string, map[string][]Row) {
	groups := make(map[string][]Row)
	for _, r := range rows {
		groups[r.Column] = append(groups[r.Column], r)
	}
	labels := make([]string, 0, len(groups))
	for l, g := range groups {
		labels = append(labels, l)
		sort.SliceStable(g, func(i, j int) bool { return g[i].Depth < g[j].Depth })
	}
	sort.Strings(labels)
	return labels, groups
}

// depthAverage returns the concentration of e in a column averaged over
// the sampled depth range.
func depthAverage(rows []Row, e Element, m Method) (float64, error) {
	x := make([]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		c, err := r.conc(e)
		if err != nil {
			return math.NaN(), err
		}
		x[i], y[i] = r.Depth, c
	}
	depthRange := x[len(x)-1] - x[0]
	if !(depthRange > 0) {
		return math.NaN(), fmt.Errorf("coltest: column %s has no depth range: %w",
			rows[0].Column, lakelime.ErrInvalidInput)
	}
	area, err := Integrate(y, x, m)
	if err != nil {
		return math.NaN(), fmt.Errorf("coltest: column %s: %w", rows[0].Column, err)
	}
	return area / depthRange, nil
}

// InstantaneousDissolution calculates the percentage of element e that
// dissolved in each column of an instantaneous dissolution test.
// fullyDissolved is the concentration [mg/l] of e if all of the lime had
// dissolved. Results are ordered by column label.
func InstantaneousDissolution(rows []Row, e Element, fullyDissolved float64, m Method) ([]Dissolution, error) {
	if !(fullyDissolved > 0) || math.IsInf(fullyDissolved, 0) {
		return nil, fmt.Errorf("coltest: fully dissolved concentration must be > 0 (is %g): %w",
			fullyDissolved, lakelime.ErrInvalidArgument)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("coltest: no instantaneous dissolution data: %w", lakelime.ErrInvalidInput)
	}
	labels, groups := columns(rows)
	o := make([]Dissolution, len(labels))
	for i, l := range labels {
		avg, err := depthAverage(groups[l], e, m)
		if err != nil {
			return nil, err
		}
		o[i] = Dissolution{
			Column:         l,
			PH:             groups[l][0].PH,
			DissolutionPct: 100 * avg / fullyDissolved,
		}
	}
	return o, nil
}

// Overdosing calculates the overdosing factor of each column of an
// overdosing test. elementPct is the content of e in the lime [%]. The
// column with the most complete dissolution has a factor of 1 and the
// others have proportionally larger factors. Results are ordered by
// increasing factor.
func Overdosing(rows []Row, e Element, elementPct float64, m Method) ([]OverdosingFactor, error) {
	if !(elementPct > 0 && elementPct <= 100) {
		return nil, fmt.Errorf("coltest: %s content must be between 0 and 100%% (is %g): %w",
			e, elementPct, lakelime.ErrInvalidArgument)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("coltest: no overdosing data: %w", lakelime.ErrInvalidInput)
	}
	labels, groups := columns(rows)
	o := make([]OverdosingFactor, len(labels))
	metrics := make([]float64, len(labels))
	for i, l := range labels {
		dose := groups[l][0].LimeAdded
		ref := dose * elementPct / 100
		if !(ref > 0) {
			return nil, fmt.Errorf("coltest: column %s: lime dose must be > 0 (is %g): %w",
				l, dose, lakelime.ErrInvalidArgument)
		}
		avg, err := depthAverage(groups[l], e, m)
		if err != nil {
			return nil, err
		}
		metrics[i] = avg / ref
		if metrics[i] == 0 {
			return nil, fmt.Errorf("coltest: column %s has no dissolved %s: %w", l, e, lakelime.ErrInvalidInput)
		}
		o[i] = OverdosingFactor{Column: l, LimeAdded: dose}
	}
	best := metrics[0]
	for _, v := range metrics[1:] {
		best = math.Max(best, v)
	}
	for i := range o {
		o[i].Factor = best / metrics[i]
	}
	sort.SliceStable(o, func(i, j int) bool { return o[i].Factor < o[j].Factor })
	return o, nil
}
