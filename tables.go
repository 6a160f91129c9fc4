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

// DefaultProducts returns the built-in lime product database.
func DefaultProducts() LiteralProducts {
	return LiteralProducts{
		{
			Name:  "Miljøkalk EY3",
			CaPct: 38.5, MgPct: 0, DryFactor: 0.7, ColumnDepth: 2.0,
			ID: [5]float64{70.4, 51.2, 44.0, 42.3, 37.8},
			OD: [5]float64{1.0, 1.2, 1.5, 2.2, 3.4},
		},
		{
			Name:  "Miljøkalk VK3",
			CaPct: 39, MgPct: 0, DryFactor: 0.7, ColumnDepth: 2.0,
			ID: [5]float64{81.9, 63.4, 58.4, 51.6, 52.1},
			OD: [5]float64{1.0, 1.3, 2.0, 2.3, 3.6},
		},
		{
			Name:  "SK2",
			CaPct: 33.2, MgPct: 1.4, DryFactor: 0.6, ColumnDepth: 5.0,
			ID: [5]float64{66, 63, 60, 58, 56},
			OD: [5]float64{1.0, 1.0, 1.1, 1.4, 2.3},
		},
	}
}

// DefaultFlowTypologies returns the built-in monthly flow profiles:
// "fjell" (inland, snowmelt-dominated) and "kyst" (coastal, rain-dominated).
// Each profile averages to 1 over the year.
func DefaultFlowTypologies() FlowTypologies {
	return FlowTypologies{
		FlatProfile: {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
		"fjell":     {0.35, 0.30, 0.35, 0.70, 2.40, 2.60, 1.30, 0.95, 1.05, 1.00, 0.60, 0.40},
		"kyst":      {1.25, 0.95, 1.00, 0.95, 0.75, 0.60, 0.55, 0.70, 1.10, 1.35, 1.45, 1.35},
	}
}

// DefaultTitrationCurves returns the built-in titration curves, one per
// TOC band, relating lake pH to CaCO3 concentration [mg/l].
func DefaultTitrationCurves() TitrationCurves {
	// Bands do not share pH slices.
	ph := func() []float64 { return []float64{4.0, 4.5, 5.0, 5.5, 6.0, 6.5, 7.0} }
	return TitrationCurves{
		TOCLow: {
			PH:    ph(),
			CaCO3: []float64{0, 1.0, 2.2, 3.2, 4.0, 4.8, 5.8},
		},
		TOCMedium: {
			PH:    ph(),
			CaCO3: []float64{0, 1.6, 3.4, 4.9, 6.2, 7.4, 8.8},
		},
		TOCHigh: {
			PH:    ph(),
			CaCO3: []float64{0, 2.4, 5.0, 7.2, 9.1, 10.8, 12.7},
		},
	}
}
