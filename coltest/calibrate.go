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

	"github.com/lakelime/lakelime"
)

// Parameters describe the lime and water used in a column test.
type Parameters struct {
	MassLimeG   float64 // Mass of lime added to each column [g]
	WaterVolL   float64 // Volume of water in each column [l]
	ProductName string
	CaPct       float64 // Ca content of the lime by mass [%]
	MgPct       float64 // Mg content of the lime by mass [%]
}

// Validate checks that the parameters describe a physical test.
func (p Parameters) Validate() error {
	if !(p.MassLimeG > 0) || !(p.WaterVolL > 0) {
		return fmt.Errorf("coltest: lime mass and water volume must be > 0 (are %g g and %g l): %w",
			p.MassLimeG, p.WaterVolL, lakelime.ErrInvalidArgument)
	}
	if !(p.CaPct >= 0 && p.MgPct >= 0 && p.CaPct+p.MgPct <= 100) {
		return fmt.Errorf("coltest: invalid lime composition (Ca %g%%, Mg %g%%): %w",
			p.CaPct, p.MgPct, lakelime.ErrInvalidArgument)
	}
	return nil
}

// LimeConcentration returns the lime concentration [mg/l] in the columns.
func (p Parameters) LimeConcentration() float64 {
	return 1000 * p.MassLimeG / p.WaterVolL
}

// ElementPct returns the content of e in the lime [%].
func (p Parameters) ElementPct(e Element) float64 {
	switch e {
	case Ca:
		return p.CaPct
	case Mg:
		return p.MgPct
	}
	return math.NaN()
}

// FullyDissolved returns the concentration [mg/l] of e if all of the
// lime dissolved.
func (p Parameters) FullyDissolved(e Element) float64 {
	return p.LimeConcentration() * p.ElementPct(e) / 100
}

// Report holds the reduced results of both column tests for one element.
type Report struct {
	Element       Element
	Instantaneous []Dissolution
	Overdosing    []OverdosingFactor
}

// Reduce calculates instantaneous dissolution and overdosing factors for
// element e from a column test template.
func Reduce(t *Template, e Element, m Method) (*Report, error) {
	if err := t.Parameters.Validate(); err != nil {
		return nil, err
	}
	inst, err := InstantaneousDissolution(t.Instantaneous, e, t.Parameters.FullyDissolved(e), m)
	if err != nil {
		return nil, fmt.Errorf("coltest: instantaneous dissolution test: %w", err)
	}
	od, err := Overdosing(t.Overdosing, e, t.Parameters.ElementPct(e), m)
	if err != nil {
		return nil, fmt.Errorf("coltest: overdosing test: %w", err)
	}
	return &Report{Element: e, Instantaneous: inst, Overdosing: od}, nil
}

const matchTolerance = 1e-6

// Calibrate creates a lime product from reduced column test results. The
// results must contain one value at each of the pH values in
// lakelime.IDPH and each of the doses in lakelime.ODDoses. colDepth is
// the length of the columns [m].
func Calibrate(p Parameters, colDepth, dryFactor float64, r *Report) (*lakelime.LimeProduct, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lp := lakelime.LimeProduct{
		Name:        p.ProductName,
		CaPct:       p.CaPct,
		MgPct:       p.MgPct,
		DryFactor:   dryFactor,
		ColumnDepth: colDepth,
	}
	for i, ph := range lakelime.IDPH {
		found := false
		for _, d := range r.Instantaneous {
			if math.Abs(d.PH-ph) < matchTolerance {
				lp.ID[i] = d.DissolutionPct
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("coltest: no instantaneous dissolution result at pH %g: %w",
				ph, lakelime.ErrInvalidInput)
		}
	}
	for i, dose := range lakelime.ODDoses {
		found := false
		for _, o := range r.Overdosing {
			if math.Abs(o.LimeAdded-dose) < matchTolerance {
				lp.OD[i] = o.Factor
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("coltest: no overdosing result at %g mg/l: %w",
				dose, lakelime.ErrInvalidInput)
		}
	}
	return lakelime.NewLimeProduct(lp)
}
