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

// State is the state of the Ca box model. Both values are in mg/l as Ca.
type State struct {
	Lake   float64 // Ca-equivalent concentration in the lake water
	Bottom float64 // Lime on the lake bottom available for dissolution
}

// Deposit is lime added to the lake bottom at a given time [months].
type Deposit struct {
	Time, Amount float64
}

// Forcing holds the conditions that are constant within one simulated
// month.
type Forcing struct {
	Flow     float64 // Outflow, equal to inflow [l/month]
	Volume   float64 // Lake volume [l]
	InflowCa float64 // Ca-equivalent concentration of the inflow [mg/l]

	// Deposits are the bottom deposits made so far, in order.
	Deposits []Deposit
}

// exchange returns the rate of change of lake concentration [mg/l/month]
// caused by water flowing through the lake.
func (f *Forcing) exchange(lake float64) float64 {
	return (f.Flow*f.InflowCa - f.Flow*lake) / f.Volume
}

// sinceDosing returns the time [months] since the latest deposit, or t
// if nothing has been deposited.
func (f *Forcing) sinceDosing(t float64) float64 {
	if len(f.Deposits) == 0 {
		return math.Max(t, 0)
	}
	return math.Max(t-f.Deposits[len(f.Deposits)-1].Time, 0)
}

// A KineticsPolicy describes how lime dissolves from the lake bottom.
type KineticsPolicy interface {
	// Derivative returns the rate of change [mg/l/month] of state s at
	// time t [months since the start of the simulation].
	Derivative(s State, t float64, f *Forcing) State

	// Validate checks the policy parameters.
	Validate() error

	// Name is the configuration name of the policy.
	Name() string
}

// Names of the kinetics policies.
const (
	ExponentialName = "exponential"
	SaturationName  = "saturation"
)

// ExponentialDecay releases each bottom deposit A at rate
// A·KL·exp(-KL·τ), where τ is the time since the deposit was made. The
// bottom pool is a fixed reservoir and is not depleted.
type ExponentialDecay struct {
	KL float64 // Release rate constant [1/month]
}

// Name implements KineticsPolicy.
func (ExponentialDecay) Name() string { return ExponentialName }

// Validate implements KineticsPolicy.
func (e ExponentialDecay) Validate() error {
	if !(e.KL > 0) || math.IsInf(e.KL, 0) {
		return fmt.Errorf("lakelime: K_L must be > 0 (is %g): %w", e.KL, ErrInvalidArgument)
	}
	return nil
}

// Derivative implements KineticsPolicy.
func (e ExponentialDecay) Derivative(s State, t float64, f *Forcing) State {
	var release float64
	for _, d := range f.Deposits {
		if t < d.Time {
			continue
		}
		release += d.Amount * e.KL * math.Exp(-e.KL*(t-d.Time))
	}
	return State{Lake: f.exchange(s.Lake) + release}
}

// SaturationLimited dissolves the bottom pool at a first-order rate
// whose constant declines with time since dosing, and which is
// suppressed as the lake approaches the saturation concentration CaAqSat.
type SaturationLimited struct {
	RateConst     float64 // Initial dissolution rate [1/month]
	ActivityConst float64 // Decline of the dissolution rate [1/month]
	CaAqSat       float64 // Saturation concentration [mg/l]
}

// Name implements KineticsPolicy.
func (SaturationLimited) Name() string { return SaturationName }

// Validate implements KineticsPolicy.
func (sl SaturationLimited) Validate() error {
	switch {
	case !(sl.RateConst >= 0) || math.IsInf(sl.RateConst, 0):
		return fmt.Errorf("lakelime: rate constant must be >= 0 (is %g): %w", sl.RateConst, ErrInvalidArgument)
	case !(sl.ActivityConst >= 0) || math.IsInf(sl.ActivityConst, 0):
		return fmt.Errorf("lakelime: activity constant must be >= 0 (is %g): %w", sl.ActivityConst, ErrInvalidArgument)
	case !(sl.CaAqSat > 0) || math.IsInf(sl.CaAqSat, 0):
		return fmt.Errorf("lakelime: Ca saturation concentration must be > 0 (is %g): %w", sl.CaAqSat, ErrInvalidArgument)
	}
	return nil
}

// Derivative implements KineticsPolicy.
func (sl SaturationLimited) Derivative(s State, t float64, f *Forcing) State {
	k := sl.RateConst * math.Exp(-sl.ActivityConst*f.sinceDosing(t))
	rf := 1 / (1 + math.Exp(10*(s.Lake-sl.CaAqSat)))
	dBottom := -k * rf * math.Min(s.Bottom, sl.CaAqSat-s.Lake)
	return State{
		Lake:   f.exchange(s.Lake) - dBottom,
		Bottom: dBottom,
	}
}

// NewKineticsPolicy returns the named policy. kl is used by the
// exponential policy and rate, activity and sat by the saturation policy.
func NewKineticsPolicy(name string, kl, rate, activity, sat float64) (KineticsPolicy, error) {
	var p KineticsPolicy
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ExponentialName:
		p = ExponentialDecay{KL: kl}
	case SaturationName:
		p = SaturationLimited{RateConst: rate, ActivityConst: activity, CaAqSat: sat}
	default:
		return nil, fmt.Errorf("lakelime: invalid kinetics %q; valid options are '%s' and '%s': %w",
			name, ExponentialName, SaturationName, ErrInvalidArgument)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
