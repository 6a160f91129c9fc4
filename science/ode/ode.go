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

// Package ode contains an adaptive Runge-Kutta integrator for small
// systems of ordinary differential equations.
package ode

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Func calculates the derivative of y at time t and stores it in dy.
type Func func(t float64, y, dy []float64)

// Errors returned by Solve.
var (
	ErrNonFinite = errors.New("ode: non-finite state")
	ErrStepSize  = errors.New("ode: step size too small")
	ErrMaxSteps  = errors.New("ode: maximum number of steps exceeded")
)

// Settings control the accuracy of the integration.
type Settings struct {
	RelTol, AbsTol float64

	// InitialStep is the first trial step. If zero, a step of 1% of the
	// first output interval is used.
	InitialStep float64

	// MaxSteps is the maximum number of accepted and rejected steps
	// between two output times.
	MaxSteps int
}

// DefaultSettings returns tolerances suitable for concentrations in mg/l.
func DefaultSettings() Settings {
	return Settings{
		RelTol:   1e-8,
		AbsTol:   1e-10,
		MaxSteps: 100000,
	}
}

// Dormand-Prince 5(4) coefficients.
var (
	dpC = [7]float64{0, 1. / 5, 3. / 10, 4. / 5, 8. / 9, 1, 1}
	dpA = [7][6]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{44. / 45, -56. / 15, 32. / 9},
		{19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729},
		{9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656},
		{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84},
	}
	// Difference between the 5th and 4th order weights.
	dpE = [7]float64{71. / 57600, 0, -71. / 16695, 71. / 1920, -17253. / 339200, 22. / 525, -1. / 40}
)

// Solve integrates dy/dt = f(t, y) starting from y0 at ts[0] and returns
// the state at every time in ts. ts must be strictly increasing. The
// first returned state is a copy of y0. Steps are shortened so the
// integrator lands exactly on each requested time.
func Solve(f Func, y0, ts []float64, s Settings) ([][]float64, error) {
	if len(ts) < 1 {
		return nil, fmt.Errorf("ode: no output times")
	}
	for i := 1; i < len(ts); i++ {
		if !(ts[i] > ts[i-1]) {
			return nil, fmt.Errorf("ode: output times must be strictly increasing (t[%d]=%g, t[%d]=%g)",
				i-1, ts[i-1], i, ts[i])
		}
	}
	if s.RelTol <= 0 && s.AbsTol <= 0 {
		return nil, fmt.Errorf("ode: at least one of RelTol and AbsTol must be positive")
	}
	if s.MaxSteps <= 0 {
		s.MaxSteps = DefaultSettings().MaxSteps
	}
	if len(y0) == 0 {
		return nil, fmt.Errorf("ode: empty initial state")
	}
	if !finite(y0) {
		return nil, fmt.Errorf("%w: initial state %v", ErrNonFinite, y0)
	}

	n := len(y0)
	w := newWorkspace(n)
	y := make([]float64, n)
	copy(y, y0)
	out := make([][]float64, len(ts))
	out[0] = append([]float64(nil), y...)

	t := ts[0]
	h := s.InitialStep
	if h <= 0 && len(ts) > 1 {
		h = 0.01 * (ts[1] - ts[0])
	}
	f(t, y, w.k[0])
	for i := 1; i < len(ts); i++ {
		var err error
		t, h, err = w.advance(f, t, ts[i], h, y, s)
		if err != nil {
			return nil, err
		}
		out[i] = append([]float64(nil), y...)
	}
	return out, nil
}

type workspace struct {
	k    [7][]float64
	tmp  []float64
	ynew []float64
}

func newWorkspace(n int) *workspace {
	w := &workspace{tmp: make([]float64, n), ynew: make([]float64, n)}
	for i := range w.k {
		w.k[i] = make([]float64, n)
	}
	return w
}

// advance steps y from t to tEnd in place. w.k[0] must hold f(t, y) on
// entry and holds f(tEnd, y) on return. It returns the new time and the
// suggested next step size.
func (w *workspace) advance(f Func, t, tEnd, h float64, y []float64, s Settings) (float64, float64, error) {
	const (
		safety = 0.9
		minFac = 0.2
		maxFac = 5.0
	)
	for steps := 0; t < tEnd; steps++ {
		if steps >= s.MaxSteps {
			return t, h, fmt.Errorf("%w: %d steps between t=%g and t=%g", ErrMaxSteps, steps, t, tEnd)
		}
		if h <= 1e-14*math.Max(1, math.Abs(t)) {
			return t, h, fmt.Errorf("%w at t=%g", ErrStepSize, t)
		}
		step := math.Min(h, tEnd-t)
		w.stages(f, t, step, y)
		errNorm := w.errNorm(step, y, s)
		if !finite(w.ynew) || math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			h = step * minFac
			if h <= 1e-14*math.Max(1, math.Abs(t)) {
				return t, h, fmt.Errorf("%w at t=%g: %v", ErrNonFinite, t+step, w.ynew)
			}
			continue
		}
		if errNorm > 1 {
			h = step * math.Max(minFac, safety*math.Pow(errNorm, -0.2))
			continue
		}
		copy(y, w.ynew)
		// First same as last: the 7th stage is f(t+step, ynew).
		w.k[0], w.k[6] = w.k[6], w.k[0]
		if step == tEnd-t {
			t = tEnd
		} else {
			t += step
		}
		fac := maxFac
		if errNorm > 0 {
			fac = math.Min(maxFac, math.Max(minFac, safety*math.Pow(errNorm, -0.2)))
		}
		if step < h {
			// Shortened to land on tEnd.
			h = math.Max(h, step*fac)
		} else {
			h = step * fac
		}
	}
	return t, h, nil
}

// stages evaluates the Runge-Kutta stages for a step of size h and stores
// the 5th order solution in w.ynew.
func (w *workspace) stages(f Func, t, h float64, y []float64) {
	for i := 1; i < 7; i++ {
		copy(w.tmp, y)
		for j := 0; j < i; j++ {
			if a := dpA[i][j]; a != 0 {
				floats.AddScaled(w.tmp, h*a, w.k[j])
			}
		}
		f(t+dpC[i]*h, w.tmp, w.k[i])
	}
	// The last row of dpA holds the 5th order weights, so the 7th stage
	// argument is the new solution.
	copy(w.ynew, w.tmp)
}

// errNorm returns the root mean square of the scaled local error estimate.
func (w *workspace) errNorm(h float64, y []float64, s Settings) float64 {
	var sum float64
	for i := range y {
		var e float64
		for j := 0; j < 7; j++ {
			e += dpE[j] * w.k[j][i]
		}
		e *= h
		sc := s.AbsTol + s.RelTol*math.Max(math.Abs(y[i]), math.Abs(w.ynew[i]))
		sum += (e / sc) * (e / sc)
	}
	return math.Sqrt(sum / float64(len(y)))
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
