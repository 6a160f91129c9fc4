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
	"errors"
	"testing"
)

func testStore(t *testing.T) *ProductCurveStore {
	s, err := DefaultProducts().Load()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestInstantaneousDissolution(t *testing.T) {
	p, err := testStore(t).Product("SK2")
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		pH, dose, want float64
	}{
		{pH: 4.0, dose: 10, want: 66},
		{pH: 6.0, dose: 10, want: 56},
		{pH: 4.75, dose: 10, want: 61.5},
		{pH: 5.0, dose: 35, want: 60 / 1.1},
		{pH: 5.0, dose: 27.5, want: 60 / 1.05},
		{pH: 4.6, dose: 85, want: 62.4 / 2.3},
	} {
		have := p.InstantaneousDissolution(test.pH, test.dose)
		if different(have, test.want, 1e-10) {
			t.Errorf("pH %g, dose %g: have %g, want %g", test.pH, test.dose, have, test.want)
		}
	}
}

func TestInstantaneousDissolutionClipping(t *testing.T) {
	p, err := testStore(t).Product("Miljøkalk EY3")
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		pH, dose, clippedPH, clippedDose float64
	}{
		{3.0, 10, 4.0, 10},
		{7.5, 10, 6.0, 10},
		{5.0, 1, 5.0, 10},
		{5.0, 200, 5.0, 85},
		{2.0, 0, 4.0, 10},
		{9.0, 500, 6.0, 85},
	} {
		have := p.InstantaneousDissolution(test.pH, test.dose)
		want := p.InstantaneousDissolution(test.clippedPH, test.clippedDose)
		if have != want {
			t.Errorf("pH %g, dose %g: have %g, want %g", test.pH, test.dose, have, want)
		}
	}
}

func TestProductCurveStore(t *testing.T) {
	s := testStore(t)
	names := s.Names()
	want := []string{"Miljøkalk EY3", "Miljøkalk VK3", "SK2"}
	if len(names) != len(want) {
		t.Fatalf("names: have %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("name %d: have %q, want %q", i, names[i], want[i])
		}
	}
	if _, err := s.Product("Dolomite"); !errors.Is(err, ErrLookup) {
		t.Errorf("unknown product: have %v, want %v", err, ErrLookup)
	}
	if _, err := s.InstantaneousDissolution("Dolomite", 5, 10); !errors.Is(err, ErrLookup) {
		t.Errorf("unknown product: have %v, want %v", err, ErrLookup)
	}
	id, err := s.InstantaneousDissolution("SK2", 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	if id != 60 {
		t.Errorf("SK2 at pH 5: have %g, want 60", id)
	}
}

func TestNewLimeProductErrors(t *testing.T) {
	good := DefaultProducts()[2]
	for name, mod := range map[string]func(*LimeProduct){
		"name":      func(p *LimeProduct) { p.Name = "" },
		"Ca":        func(p *LimeProduct) { p.CaPct = 101 },
		"Ca+Mg":     func(p *LimeProduct) { p.CaPct, p.MgPct = 60, 50 },
		"dry":       func(p *LimeProduct) { p.DryFactor = 1.5 },
		"col depth": func(p *LimeProduct) { p.ColumnDepth = 0 },
		"ID":        func(p *LimeProduct) { p.ID[2] = -1 },
		"OD":        func(p *LimeProduct) { p.OD[4] = 0 },
	} {
		p := good
		mod(&p)
		if _, err := NewLimeProduct(p); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: have %v, want %v", name, err, ErrInvalidArgument)
		}
	}
	if _, err := NewProductCurveStore(good, good); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("duplicate: have %v, want %v", err, ErrInvalidInput)
	}
}
