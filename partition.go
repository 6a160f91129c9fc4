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
	"strings"
)

// SpreadMethod is the way a lime product is applied to the lake surface.
type SpreadMethod int

// Spreading methods.
const (
	Wet SpreadMethod = iota // As a slurry
	Dry                     // As a dry powder
)

func (m SpreadMethod) String() string {
	switch m {
	case Wet:
		return "wet"
	case Dry:
		return "dry"
	default:
		return fmt.Sprintf("SpreadMethod(%d)", int(m))
	}
}

// ParseSpreadMethod parses "wet" or "dry" (case insensitive).
func ParseSpreadMethod(s string) (SpreadMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "wet":
		return Wet, nil
	case "dry":
		return Dry, nil
	default:
		return Wet, fmt.Errorf("lakelime: invalid spreading method %q; valid options are 'wet' and 'dry': %w",
			s, ErrInvalidArgument)
	}
}

// ElementPartition is the split of one element of a lime dose between
// the water column and the lake bottom.
type ElementPartition struct {
	EffectivePH    float64 // Depth-corrected pH used for the dissolution lookup
	DissolutionPct float64 // Instantaneous dissolution after the method factor [%]
	Total          float64 // Element added [mg/l]
	Inst           float64 // Dissolved immediately [mg/l]
	Bottom         float64 // Settled on the lake bottom [mg/l]
}

// Partition is the split of a lime dose into an instantaneous increase in
// lake Ca-equivalent concentration and a pool that dissolves slowly from
// the lake bottom. Both are in mg/l as Ca.
type Partition struct {
	Inst   float64
	Bottom float64

	Ca, Mg ElementPartition
}

// NewPartition splits the scenario's dose of product p in lake l.
//
// Dissolution in the lake is taken from the column test at an effective
// pH that accounts for the difference between lake depth and column
// length: for Ca the pH is lowered by log10(lakeDepth/columnDepth), and
// for Mg by half of that. Mg quantities are converted to Ca equivalents
// by molar mass. The instantaneous part is scaled by the proportion of
// the lake surface that is limed and the bottom part additionally by the
// soluble fraction FSol.
func NewPartition(l *Lake, p *LimeProduct, s *Scenario) (*Partition, error) {
	if !(s.Dose >= 0 && s.Dose <= MaxDose) {
		return nil, fmt.Errorf("lakelime: lime dose must be between 0 and %g mg/l (is %g): %w",
			MaxDose, s.Dose, ErrInvalidArgument)
	}
	if !(s.SpreadProportion >= 0 && s.SpreadProportion <= 1) {
		return nil, fmt.Errorf("lakelime: spread proportion must be between 0 and 1 (is %g): %w",
			s.SpreadProportion, ErrInvalidArgument)
	}
	if !(s.FSol >= 0 && s.FSol <= 1) {
		return nil, fmt.Errorf("lakelime: soluble fraction must be between 0 and 1 (is %g): %w",
			s.FSol, ErrInvalidArgument)
	}
	depthCorr := math.Log10(l.Depth / p.ColumnDepth)
	mf := p.MethodFactor(s.Method)

	element := func(pct, pH float64) ElementPartition {
		e := ElementPartition{EffectivePH: pH, Total: s.Dose * pct / 100}
		e.DissolutionPct = p.InstantaneousDissolution(pH, s.Dose) * mf
		e.Inst = e.DissolutionPct / 100 * e.Total
		e.Bottom = e.Total - e.Inst
		return e
	}
	pt := &Partition{
		Ca: element(p.CaPct, l.PH0-depthCorr),
		Mg: element(p.MgPct, l.PH0-0.5*depthCorr),
	}
	pt.Inst = s.SpreadProportion * (pt.Ca.Inst + pt.Mg.Inst*MgToCa)
	pt.Bottom = s.SpreadProportion * s.FSol * (pt.Ca.Bottom + pt.Mg.Bottom*MgToCa)
	return pt, nil
}
