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

// Column test reference conditions. Instantaneous dissolution (ID) is
// measured at the IDPH pH values for a dose of ReferenceDose, and
// overdosing factors (OD) are measured at the ODDoses doses for a pH of
// ReferencePH.
var (
	IDPH    = [5]float64{4.0, 4.5, 5.0, 5.5, 6.0}
	ODDoses = [5]float64{10, 20, 35, 50, 85}
)

const (
	ReferenceDose = 10.  // mg/l
	ReferencePH   = 4.6  // -
	MaxDose       = 85.  // mg/l
	minColDepth   = 1e-9 // m
)

// LimeProduct holds the composition of a lime product and its column
// test calibration curves. Use NewLimeProduct to create one.
type LimeProduct struct {
	Name string

	CaPct float64 // Ca (not CaCO3) content by mass [%]
	MgPct float64 // Mg (not MgCO3) content by mass [%]

	// DryFactor multiplies the instantaneous dissolution when the
	// product is spread dry instead of as a slurry.
	DryFactor float64

	ColumnDepth float64 // Length of the calibration columns [m]

	ID [5]float64 // Instantaneous dissolution [%] at IDPH for ReferenceDose
	OD [5]float64 // Overdosing factors [-] at ODDoses for ReferencePH

	idCurve, odCurve interp.PiecewiseLinear
}

// NewLimeProduct validates p and prepares its calibration curves.
func NewLimeProduct(p LimeProduct) (*LimeProduct, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("lakelime: lime product has no name: %w", ErrInvalidArgument)
	}
	check := func(field string, v, min, max float64) error {
		if !(v >= min && v <= max) {
			return fmt.Errorf("lakelime: lime product %q: %s must be between %g and %g (is %g): %w",
				p.Name, field, min, max, v, ErrInvalidArgument)
		}
		return nil
	}
	for _, err := range []error{
		check("CaPct", p.CaPct, 0, 100),
		check("MgPct", p.MgPct, 0, 100),
		check("CaPct+MgPct", p.CaPct+p.MgPct, 0, 100),
		check("DryFactor", p.DryFactor, 0, 1),
	} {
		if err != nil {
			return nil, err
		}
	}
	if !(p.ColumnDepth > minColDepth) || math.IsInf(p.ColumnDepth, 0) {
		return nil, fmt.Errorf("lakelime: lime product %q: ColumnDepth must be > 0 (is %g): %w",
			p.Name, p.ColumnDepth, ErrInvalidArgument)
	}
	for i := range p.ID {
		if !(p.ID[i] >= 0) || math.IsInf(p.ID[i], 0) {
			return nil, fmt.Errorf("lakelime: lime product %q: invalid instantaneous dissolution %g at pH %g: %w",
				p.Name, p.ID[i], IDPH[i], ErrInvalidArgument)
		}
		if !(p.OD[i] > 0) || math.IsInf(p.OD[i], 0) {
			return nil, fmt.Errorf("lakelime: lime product %q: overdosing factor at %g mg/l must be > 0 (is %g): %w",
				p.Name, ODDoses[i], p.OD[i], ErrInvalidArgument)
		}
	}
	p.idCurve.Fit(IDPH[:], p.ID[:])
	p.odCurve.Fit(ODDoses[:], p.OD[:])
	return &p, nil
}

// InstantaneousDissolution returns the estimated instantaneous
// dissolution [%] of the product at the given pH and lime dose [mg/l].
//
// The dissolution at the reference dose is interpolated for the
// requested pH, and the overdosing factor at the reference pH is
// interpolated for the requested dose; the result is their ratio. This
// assumes the pH and dose responses are separable, which is a modelling
// simplification carried over from the column test method rather than
// a derived result.
//
// Values are interpolated, never extrapolated: pH is clipped to [4, 6]
// and dose to [10, 85] mg/l, so queries outside the calibrated range
// return the value at the nearest boundary.
func (p *LimeProduct) InstantaneousDissolution(pH, dose float64) float64 {
	pH = clip(pH, IDPH[0], IDPH[len(IDPH)-1])
	dose = clip(dose, ODDoses[0], ODDoses[len(ODDoses)-1])
	return p.idCurve.Predict(pH) / p.odCurve.Predict(dose)
}

// MethodFactor returns the factor applied to the instantaneous
// dissolution for the given spreading method.
func (p *LimeProduct) MethodFactor(m SpreadMethod) float64 {
	if m == Dry {
		return p.DryFactor
	}
	return 1
}

func clip(v, min, max float64) float64 {
	return math.Max(math.Min(v, max), min)
}

// ProductCurveStore holds a set of lime products keyed by name. It is
// not modified after creation and can be shared between simulations.
type ProductCurveStore struct {
	products map[string]*LimeProduct
}

// NewProductCurveStore validates the given products and returns a store
// holding them. Duplicate names are an error.
func NewProductCurveStore(products ...LimeProduct) (*ProductCurveStore, error) {
	s := &ProductCurveStore{products: make(map[string]*LimeProduct, len(products))}
	for _, p := range products {
		pp, err := NewLimeProduct(p)
		if err != nil {
			return nil, err
		}
		if _, ok := s.products[pp.Name]; ok {
			return nil, fmt.Errorf("lakelime: duplicate lime product %q: %w", pp.Name, ErrInvalidInput)
		}
		s.products[pp.Name] = pp
	}
	return s, nil
}

// Product returns the product with the given name.
func (s *ProductCurveStore) Product(name string) (*LimeProduct, error) {
	p, ok := s.products[name]
	if !ok {
		return nil, fmt.Errorf("lakelime: lime product %q not found in database: %w", name, ErrLookup)
	}
	return p, nil
}

// Names returns the sorted names of the products in the store.
func (s *ProductCurveStore) Names() []string {
	o := make([]string, 0, len(s.products))
	for n := range s.products {
		o = append(o, n)
	}
	sort.Strings(o)
	return o
}

// InstantaneousDissolution is a convenience wrapper that looks up the
// named product and returns its instantaneous dissolution.
func (s *ProductCurveStore) InstantaneousDissolution(name string, pH, dose float64) (float64, error) {
	p, err := s.Product(name)
	if err != nil {
		return math.NaN(), err
	}
	return p.InstantaneousDissolution(pH, dose), nil
}

// A ProductRepository is a source of lime product data. Implementations
// may hold a literal table or read an external file; the model only
// sees the resulting ProductCurveStore.
type ProductRepository interface {
	Load() (*ProductCurveStore, error)
}

// LiteralProducts is a ProductRepository backed by an in-memory table.
type LiteralProducts []LimeProduct

// Load implements ProductRepository.
func (lp LiteralProducts) Load() (*ProductCurveStore, error) {
	return NewProductCurveStore(lp...)
}
