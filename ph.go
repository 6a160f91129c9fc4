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

package lakelime

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
)

// Molar masses [grams per mole]
const (
	mwCa    = 40.08
	mwMg    = 24.31
	mwCaCO3 = 100.09
)

// Mass conversions [ratios]
const (
	MgToCa    = mwCa / mwMg    // Mg mass to Ca-equivalent mass
	CaToCaCO3 = mwCaCO3 / mwCa // Ca mass to CaCO3 mass
)

// TOC band labels used to select a titration curve.
const (
	TOCLow    = "TOC ≤ 3"
	TOCMedium = "3 < TOC ≤ 5"
	TOCHigh   = "TOC > 5"
)

// TOCBand returns the titration curve band for a lake with the given
// total organic carbon concentration [mg/l].
func TOCBand(toc float64) (string, error) {
	switch {
	case toc >= 0 && toc <= 3:
		return TOCLow, nil
	case toc > 3 && toc <= 5:
		return TOCMedium, nil
	case toc > 5 && !math.IsInf(toc, 1):
		return TOCHigh, nil
	default:
		return "", fmt.Errorf("lakelime: no TOC band for TOC = %g mg/l: %w", toc, ErrLookup)
	}
}

// TitrationCurve is an empirical relationship between water pH and the
// CaCO3 concentration [mg/l] required to reach it.
type TitrationCurve struct {
	PH    []float64
	CaCO3 []float64
}

// TitrationCurves holds one titration curve per TOC band.
type TitrationCurves map[string]TitrationCurve

// extrapolator is a piecewise linear interpolator that extends the first
// and last segments beyond the ends of the data.
type extrapolator struct {
	pl     interp.PiecewiseLinear
	xs, ys []float64
}

func newExtrapolator(xs, ys []float64) *extrapolator {
	e := &extrapolator{xs: xs, ys: ys}
	e.pl.Fit(xs, ys)
	return e
}

func (e *extrapolator) Predict(x float64) float64 {
	n := len(e.xs)
	switch {
	case x < e.xs[0]:
		slope := (e.ys[1] - e.ys[0]) / (e.xs[1] - e.xs[0])
		return e.ys[0] + slope*(x-e.xs[0])
	case x > e.xs[n-1]:
		slope := (e.ys[n-1] - e.ys[n-2]) / (e.xs[n-1] - e.xs[n-2])
		return e.ys[n-1] + slope*(x-e.xs[n-1])
	}
	return e.pl.Predict(x)
}

// PhConverter converts modelled changes in Ca-equivalent concentration
// to lake pH using the titration curve for the lake's TOC band.
type PhConverter struct {
	Band   string
	PH0    float64 // Initial lake pH
	CaCO30 float64 // CaCO3 concentration corresponding to PH0 [mg/l]

	caco3FromPH, phFromCaCO3 *extrapolator
}

// NewPhConverter selects the titration curve matching toc and anchors it
// at the lake's initial pH.
func NewPhConverter(curves TitrationCurves, toc, pH0 float64) (*PhConverter, error) {
	band, err := TOCBand(toc)
	if err != nil {
		return nil, err
	}
	c, ok := curves[band]
	if !ok {
		return nil, fmt.Errorf("lakelime: no titration curve for band %q: %w", band, ErrLookup)
	}
	ph, caco3, err := c.sorted()
	if err != nil {
		return nil, fmt.Errorf("lakelime: titration curve %q: %w", band, err)
	}
	if math.IsNaN(pH0) || math.IsInf(pH0, 0) {
		return nil, fmt.Errorf("lakelime: initial pH %g: %w", pH0, ErrInvalidArgument)
	}
	pc := &PhConverter{
		Band:        band,
		PH0:         pH0,
		caco3FromPH: newExtrapolator(ph, caco3),
		phFromCaCO3: newExtrapolator(caco3, ph),
	}
	pc.CaCO30 = pc.caco3FromPH.Predict(pH0)
	return pc, nil
}

// sorted returns copies of the curve data ordered by pH, checking that
// both pH and CaCO3 increase strictly so the curve can be inverted.
func (c TitrationCurve) sorted() (ph, caco3 []float64, err error) {
	if len(c.PH) != len(c.CaCO3) {
		return nil, nil, fmt.Errorf("%d pH values but %d CaCO3 values: %w", len(c.PH), len(c.CaCO3), ErrInvalidInput)
	}
	if len(c.PH) < 2 {
		return nil, nil, fmt.Errorf("need at least 2 points, have %d: %w", len(c.PH), ErrInvalidInput)
	}
	idx := make([]int, len(c.PH))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return c.PH[idx[i]] < c.PH[idx[j]] })
	ph = make([]float64, len(idx))
	caco3 = make([]float64, len(idx))
	for i, j := range idx {
		ph[i], caco3[i] = c.PH[j], c.CaCO3[j]
		if math.IsNaN(ph[i]) || math.IsNaN(caco3[i]) {
			return nil, nil, fmt.Errorf("NaN in curve data: %w", ErrInvalidInput)
		}
		if i > 0 && !(ph[i] > ph[i-1] && caco3[i] > caco3[i-1]) {
			return nil, nil, fmt.Errorf("pH and CaCO3 must both increase strictly: %w", ErrInvalidInput)
		}
	}
	return ph, caco3, nil
}

// PH returns the lake pH after a change deltaCa [mg/l as Ca] relative to
// the initial state. A zero change returns the initial pH exactly.
func (pc *PhConverter) PH(deltaCa float64) float64 {
	if deltaCa == 0 {
		return pc.PH0
	}
	return pc.phFromCaCO3.Predict(pc.CaCO30 + deltaCa*CaToCaCO3)
}

// PHSeries converts a series of changes in Ca-equivalent concentration
// to pH.
func (pc *PhConverter) PHSeries(deltaCa []float64) []float64 {
	o := make([]float64, len(deltaCa))
	for i, d := range deltaCa {
		o[i] = pc.PH(d)
	}
	return o
}
