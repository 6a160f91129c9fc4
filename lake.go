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

// Package lakelime is a box model of the calcium concentration and pH of
// a lake after a lime product is added. Lime dissolves partly on
// addition and partly from a pool that settles on the lake bottom, and
// is washed out by the monthly outflow.
package lakelime

import (
	"fmt"
	"math"
	"sort"

	"github.com/ctessum/unit"
)

// FlatProfile is the flow typology key for a lake with the same flow
// in every month of the year.
const FlatProfile = "none"

const (
	secondsPerMonth = 60 * 60 * 24 * 30 // Used for discharge reporting only.
	litresPerM3     = 1000.
)

// Lake holds the physical description of a lake. Use NewLake to create
// a validated Lake.
type Lake struct {
	Area          float64 // Surface area [km²]
	Depth         float64 // Mean depth [m]
	ResidenceTime float64 // Mean annual residence time [years]

	// FlowProfile is the name of the flow typology giving the typical
	// monthly flow relative to the annual mean flow.
	FlowProfile string

	PH0  float64 // Initial lake pH [-]
	TOC0 float64 // Initial total organic carbon [mg/l]

	InitialCa float64 // Background Ca-equivalent concentration at t=0 [mg/l]
	InflowCa  float64 // Ca-equivalent concentration of the inflow [mg/l]
}

// Minimum and maximum allowed initial lake pH.
const (
	MinLakePH = 4.5
	MaxLakePH = 6.5
)

// NewLake returns a validated copy of l.
func NewLake(l Lake) (*Lake, error) {
	for _, v := range []struct {
		name string
		val  float64
	}{{"Area", l.Area}, {"Depth", l.Depth}, {"ResidenceTime", l.ResidenceTime}} {
		if !(v.val > 0) || math.IsInf(v.val, 0) {
			return nil, fmt.Errorf("lakelime: lake %s must be greater than 0 (is %g): %w",
				v.name, v.val, ErrInvalidArgument)
		}
	}
	if !(l.PH0 >= MinLakePH && l.PH0 <= MaxLakePH) {
		return nil, fmt.Errorf("lakelime: lake initial pH must be between %g and %g (is %g): %w",
			MinLakePH, MaxLakePH, l.PH0, ErrInvalidArgument)
	}
	if !(l.TOC0 >= 0) {
		return nil, fmt.Errorf("lakelime: lake initial TOC must be >= 0 (is %g): %w", l.TOC0, ErrInvalidArgument)
	}
	if !(l.InflowCa >= 0) {
		return nil, fmt.Errorf("lakelime: inflow Ca must be >= 0 (is %g): %w", l.InflowCa, ErrInvalidArgument)
	}
	if math.IsNaN(l.InitialCa) {
		return nil, fmt.Errorf("lakelime: initial Ca is NaN: %w", ErrInvalidArgument)
	}
	if l.FlowProfile == "" {
		l.FlowProfile = FlatProfile
	}
	return &l, nil
}

// Volume returns the lake volume in litres.
func (l *Lake) Volume() float64 {
	return 1000 * l.Area * 1e6 * l.Depth
}

// MeanAnnualFlow returns the mean flow [litres/month] that gives the
// lake its residence time, rounded to the nearest litre.
func (l *Lake) MeanAnnualFlow() float64 {
	return math.RoundToEven(l.Volume() / (12 * l.ResidenceTime))
}

// FlowTypologies maps typology names to the flow in each calendar month
// (January first) relative to the annual mean flow.
type FlowTypologies map[string][12]float64

// NewFlowTypologies checks that all ratios are finite and non-negative.
func NewFlowTypologies(t map[string][12]float64) (FlowTypologies, error) {
	o := make(FlowTypologies, len(t))
	for name, ratios := range t {
		for i, r := range ratios {
			if !(r >= 0) || math.IsInf(r, 0) {
				return nil, fmt.Errorf("lakelime: flow typology %q month %d has invalid ratio %g: %w",
					name, i+1, r, ErrInvalidInput)
			}
		}
		o[name] = ratios
	}
	return o, nil
}

// Names returns the sorted typology names, including the flat profile.
func (ft FlowTypologies) Names() []string {
	names := []string{FlatProfile}
	for n := range ft {
		if n != FlatProfile {
			names = append(names, n)
		}
	}
	sort.Strings(names[1:])
	return names
}

// Ratio returns the flow ratio for the given calendar month (1-12).
func (ft FlowTypologies) Ratio(typology string, month int) (float64, error) {
	if month < 1 || month > 12 {
		return math.NaN(), fmt.Errorf("lakelime: calendar month must be between 1 and 12 (is %d): %w",
			month, ErrInvalidArgument)
	}
	ratios, ok := ft[typology]
	if !ok {
		if typology == FlatProfile {
			return 1, nil
		}
		return math.NaN(), fmt.Errorf("lakelime: unknown flow typology %q: %w", typology, ErrLookup)
	}
	return ratios[month-1], nil
}

// MonthlyFlow returns the lake outflow [litres/month] in the given
// calendar month, rounded to the nearest litre.
func (l *Lake) MonthlyFlow(month int, ft FlowTypologies) (float64, error) {
	r, err := ft.Ratio(l.FlowProfile, month)
	if err != nil {
		return math.NaN(), err
	}
	return math.RoundToEven(r * l.MeanAnnualFlow()), nil
}

// MonthlyFlows returns the flow [litres/month] for every calendar month,
// January first.
func (l *Lake) MonthlyFlows(ft FlowTypologies) ([12]float64, error) {
	var q [12]float64
	for m := 1; m <= 12; m++ {
		v, err := l.MonthlyFlow(m, ft)
		if err != nil {
			return q, err
		}
		q[m-1] = v
	}
	return q, nil
}

// Discharge returns the outflow in the given calendar month as a
// volumetric flow rate [m³/s], assuming 30-day months.
func (l *Lake) Discharge(month int, ft FlowTypologies) (*unit.Unit, error) {
	q, err := l.MonthlyFlow(month, ft)
	if err != nil {
		return nil, err
	}
	return unit.New(q/litresPerM3/secondsPerMonth, unit.Meter3PerSecond), nil
}

// MeanDischarge returns the mean annual outflow [m³/s].
func (l *Lake) MeanDischarge() *unit.Unit {
	return unit.New(l.MeanAnnualFlow()/litresPerM3/secondsPerMonth, unit.Meter3PerSecond)
}

// VolumeM3 returns the lake volume as a physical quantity [m³].
func (l *Lake) VolumeM3() *unit.Unit {
	return unit.New(l.Volume()/litresPerM3, unit.Meter3)
}
