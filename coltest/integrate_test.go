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
	"errors"
	"math"
	"testing"

	"github.com/lakelime/lakelime"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func TestIntegrateLine(t *testing.T) {
	x := []float64{0, 0.3, 1.1, 2}
	y := make([]float64, len(x))
	for i, xx := range x {
		y[i] = 2*xx + 1
	}
	have, err := Integrate(y, x, Trapezoidal)
	if err != nil {
		t.Fatal(err)
	}
	if different(have, 6, 1e-12) {
		t.Errorf("have %g, want 6", have)
	}
	// One trapezoid.
	have, err = Integrate([]float64{3, 5}, []float64{1, 1.5}, Trapezoidal)
	if err != nil {
		t.Fatal(err)
	}
	if have != 2 {
		t.Errorf("have %g, want 2", have)
	}
}

func TestIntegrateSimpson(t *testing.T) {
	x := []float64{0, 0.5, 1, 1.5, 2}
	y := make([]float64, len(x))
	for i, xx := range x {
		y[i] = xx * xx * xx
	}
	have, err := Integrate(y, x, Simpson)
	if err != nil {
		t.Fatal(err)
	}
	if different(have, 4, 1e-12) {
		t.Errorf("cubic: have %g, want 4", have)
	}
	// An even number of samples.
	x = []float64{0, 1, 2, 3}
	y = []float64{0, 1, 4, 9}
	have, err = Integrate(y, x, Simpson)
	if err != nil {
		t.Fatal(err)
	}
	if different(have, 9, 1e-9) {
		t.Errorf("quadratic: have %g, want 9", have)
	}
}

func TestIntegrateReversal(t *testing.T) {
	x := []float64{0, 0.4, 0.8, 1.2, 1.6, 2.1}
	y := []float64{3.2, 4.1, 2.2, 7.5, 6.0, 1.3}
	for _, m := range []Method{Trapezoidal, Simpson} {
		fwd, err := Integrate(y, x, m)
		if err != nil {
			t.Fatal(err)
		}
		bwd, err := Integrate(reversed(y), reversed(x), m)
		if err != nil {
			t.Fatal(err)
		}
		if bwd != -fwd {
			t.Errorf("%v: have %g, want %g", m, bwd, -fwd)
		}
	}
}

func TestIntegrateErrors(t *testing.T) {
	for _, test := range []struct {
		name string
		y, x []float64
		m    Method
		want error
	}{
		{"length", []float64{1, 2, 3}, []float64{0, 1}, Trapezoidal, lakelime.ErrInvalidInput},
		{"one point", []float64{1}, []float64{0}, Trapezoidal, lakelime.ErrInvalidArgument},
		{"two points simpson", []float64{1, 2}, []float64{0, 1}, Simpson, lakelime.ErrInvalidArgument},
		{"NaN", []float64{1, math.NaN(), 3}, []float64{0, 1, 2}, Trapezoidal, lakelime.ErrInvalidInput},
		{"unsorted", []float64{1, 2, 3}, []float64{0, 2, 1}, Trapezoidal, lakelime.ErrInvalidInput},
		{"repeated simpson", []float64{1, 2, 3}, []float64{0, 1, 1}, Simpson, lakelime.ErrInvalidInput},
		{"method", []float64{1, 2}, []float64{0, 1}, Method(7), lakelime.ErrInvalidArgument},
	} {
		if _, err := Integrate(test.y, test.x, test.m); !errors.Is(err, test.want) {
			t.Errorf("%s: have %v, want %v", test.name, err, test.want)
		}
	}
}

func TestParseMethod(t *testing.T) {
	for s, want := range map[string]Method{"trapezoidal": Trapezoidal, "Simpson": Simpson} {
		m, err := ParseMethod(s)
		if err != nil {
			t.Fatal(err)
		}
		if m != want {
			t.Errorf("%q: have %v, want %v", s, m, want)
		}
	}
	if _, err := ParseMethod("romberg"); !errors.Is(err, lakelime.ErrInvalidArgument) {
		t.Errorf("have %v, want %v", err, lakelime.ErrInvalidArgument)
	}
}
