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

// Package coltest reduces laboratory column test data to the dissolution
// curves used to describe lime products.
package coltest

import (
	"fmt"
	"math"
	"strings"

	"github.com/lakelime/lakelime"
	"gonum.org/v1/gonum/integrate"
)

// Method is a numerical integration method.
type Method int

// Integration methods.
const (
	Trapezoidal Method = iota
	Simpson
)

func (m Method) String() string {
	switch m {
	case Trapezoidal:
		return "trapezoidal"
	case Simpson:
		return "simpson"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses "trapezoidal" or "simpson".
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trapezoidal":
		return Trapezoidal, nil
	case "simpson":
		return Simpson, nil
	default:
		return Trapezoidal, fmt.Errorf("coltest: invalid integration method %q; valid options are 'trapezoidal' and 'simpson': %w",
			s, lakelime.ErrInvalidArgument)
	}
}

// minPoints returns the minimum number of samples for method m.
func (m Method) minPoints() int {
	if m == Simpson {
		return 3
	}
	return 2
}

// Integrate approximates the integral of y over x from the first to the
// last sample. The samples do not need to be evenly spaced. x must be
// monotonic; if it decreases, the integral is negative.
//
// With Simpson's rule and an even number of samples the last interval is
// handled with a three-point correction.
func Integrate(y, x []float64, m Method) (float64, error) {
	if m != Trapezoidal && m != Simpson {
		return math.NaN(), fmt.Errorf("coltest: invalid integration method %v: %w", m, lakelime.ErrInvalidArgument)
	}
	if len(x) != len(y) {
		return math.NaN(), fmt.Errorf("coltest: integration has %d x values but %d y values: %w",
			len(x), len(y), lakelime.ErrInvalidInput)
	}
	if len(x) < m.minPoints() {
		return math.NaN(), fmt.Errorf("coltest: %v integration needs at least %d points, have %d: %w",
			m, m.minPoints(), len(x), lakelime.ErrInvalidArgument)
	}
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) || math.IsInf(x[i], 0) || math.IsInf(y[i], 0) {
			return math.NaN(), fmt.Errorf("coltest: non-finite sample %d (x=%g, y=%g): %w",
				i, x[i], y[i], lakelime.ErrInvalidInput)
		}
	}

	sign := 1.
	if x[len(x)-1] < x[0] {
		x, y = reversed(x), reversed(y)
		sign = -1
	}
	for i := 1; i < len(x); i++ {
		if x[i] < x[i-1] || (m == Simpson && x[i] == x[i-1]) {
			return math.NaN(), fmt.Errorf("coltest: x values must be monotonic for %v integration: %w",
				m, lakelime.ErrInvalidInput)
		}
	}
	if m == Simpson {
		return sign * integrate.Simpsons(x, y), nil
	}
	return sign * integrate.Trapezoidal(x, y), nil
}

func reversed(v []float64) []float64 {
	o := make([]float64, len(v))
	for i, vv := range v {
		o[len(v)-1-i] = vv
	}
	return o
}
