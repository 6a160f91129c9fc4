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
	"time"

	"github.com/lakelime/lakelime/science/ode"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// Scenario describes how a lime product is applied and how long the
// lake is simulated.
type Scenario struct {
	Dose float64 // Lime product added [mg/l]

	LimeMonth int // Calendar month of application (1-12)

	// StartMonth is the calendar month of the first simulated month. If
	// zero, the simulation starts in LimeMonth.
	StartMonth int

	Method           SpreadMethod
	SpreadProportion float64 // Fraction of the lake surface limed [-]
	FSol             float64 // Fraction of bottom lime available for slow release [-]

	Kinetics KineticsPolicy

	Months   int     // Number of months to simulate
	TimeStep float64 // Output interval as a fraction of a month
}

// MinTimeStep is the smallest allowed output interval [month]. It caps
// the output at 10,000 samples per simulated month.
const MinTimeStep = 1e-4

// Tables holds the reference tables shared by all simulations.
type Tables struct {
	Flow      FlowTypologies
	Titration TitrationCurves
}

// DefaultTables returns the built-in flow typologies and titration
// curves.
func DefaultTables() *Tables {
	return &Tables{
		Flow:      DefaultFlowTypologies(),
		Titration: DefaultTitrationCurves(),
	}
}

// Model is a box model of the Ca-equivalent concentration of a limed
// lake. It is created with NewModel and may be run any number of times.
type Model struct {
	Lake     *Lake
	Product  *LimeProduct
	Scenario Scenario

	// Flows is the outflow in each calendar month [l/month].
	Flows [12]float64

	Partition *Partition
	PH        *PhConverter

	// Solver controls the accuracy of the ODE integration.
	Solver ode.Settings

	// Log receives progress messages. It defaults to the logrus
	// standard logger.
	Log logrus.FieldLogger
}

// NewModel validates the inputs and prepares a model. If t is nil the
// built-in tables are used.
func NewModel(l *Lake, p *LimeProduct, s Scenario, t *Tables) (*Model, error) {
	if l == nil || p == nil {
		return nil, fmt.Errorf("lakelime: lake and lime product must be specified: %w", ErrInvalidArgument)
	}
	if t == nil {
		t = DefaultTables()
	}
	if s.LimeMonth < 1 || s.LimeMonth > 12 {
		return nil, fmt.Errorf("lakelime: liming month must be between 1 and 12 (is %d): %w",
			s.LimeMonth, ErrInvalidArgument)
	}
	if s.StartMonth == 0 {
		s.StartMonth = s.LimeMonth
	}
	if s.StartMonth < 1 || s.StartMonth > 12 {
		return nil, fmt.Errorf("lakelime: start month must be between 1 and 12 (is %d): %w",
			s.StartMonth, ErrInvalidArgument)
	}
	if s.Months <= 1 {
		return nil, fmt.Errorf("lakelime: number of months must be greater than 1 (is %d): %w",
			s.Months, ErrInvalidArgument)
	}
	if !(s.TimeStep >= MinTimeStep && s.TimeStep < 1) {
		return nil, fmt.Errorf("lakelime: time step must be at least %g and less than 1 month (is %g): %w",
			MinTimeStep, s.TimeStep, ErrInvalidArgument)
	}
	if s.Method != Wet && s.Method != Dry {
		return nil, fmt.Errorf("lakelime: invalid spreading method %v: %w", s.Method, ErrInvalidArgument)
	}
	if s.Kinetics == nil {
		return nil, fmt.Errorf("lakelime: bottom dissolution kinetics must be specified: %w", ErrInvalidArgument)
	}
	if err := s.Kinetics.Validate(); err != nil {
		return nil, err
	}

	m := &Model{
		Lake:     l,
		Product:  p,
		Scenario: s,
		Solver:   ode.DefaultSettings(),
		Log:      logrus.StandardLogger(),
	}
	var err error
	if m.Flows, err = l.MonthlyFlows(t.Flow); err != nil {
		return nil, err
	}
	if m.Partition, err = NewPartition(l, p, &s); err != nil {
		return nil, err
	}
	if m.PH, err = NewPhConverter(t.Titration, l.TOC0, l.PH0); err != nil {
		return nil, err
	}
	return m, nil
}

// DosingIndex returns the simulated month (counting from 0) at the start
// of which the lime is added.
func (m *Model) DosingIndex() int {
	return ((m.Scenario.LimeMonth-m.Scenario.StartMonth)%12 + 12) % 12
}

// calendarMonth returns the calendar month (1-12) of simulated month i.
func (m *Model) calendarMonth(i int) int {
	return (m.Scenario.StartMonth-1+i)%12 + 1
}

// SamplesPerMonth returns the number of output times in each simulated
// month, including both ends.
func (m *Model) SamplesPerMonth() int {
	return int(1 + 1/m.Scenario.TimeStep)
}

// Row is one output time of a simulation.
type Row struct {
	Month   float64   // Decimal month, 0 at the start of January
	Date    time.Time // Month converted to a date in the year 2000
	DeltaCa float64   // Change in lake Ca-equivalent concentration [mg/l]
	Bottom  float64   // Bottom lime pool [mg/l as Ca]
	PH      float64   // Lake pH
}

// Result is the output of one simulation.
type Result struct {
	Product   string
	Partition Partition
	Rows      []Row
}

// dateAnchor is the date of month 0. Only the day of year is meaningful.
var dateAnchor = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// MonthDate converts a decimal month to a date, taking each month to be
// 365/12 days long.
func MonthDate(month float64) time.Time {
	days := month * 365 / 12
	return dateAnchor.Add(time.Duration(math.Round(days * float64(24*time.Hour))))
}

// Run simulates the lake month by month.
//
// Each month is integrated separately with that month's flow, starting
// from the state at the end of the previous month. The lime is added at
// the start of the dosing month: the instantaneous part to the lake and
// the rest to the bottom pool. The boundary instant shared by two
// months is reported once, with the value from the later month.
func (m *Model) Run() (*Result, error) {
	s := m.Scenario
	log := m.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.WithFields(logrus.Fields{
		"product":     m.Product.Name,
		"C_inst":      m.Partition.Inst,
		"C_bott":      m.Partition.Bottom,
		"Ca_pH":       m.Partition.Ca.EffectivePH,
		"Mg_pH":       m.Partition.Mg.EffectivePH,
		"dosingMonth": m.DosingIndex(),
	}).Debug("partitioned lime dose")

	nt := m.SamplesPerMonth()
	dose := m.DosingIndex()
	if dose >= s.Months {
		log.WithField("product", m.Product.Name).Warnf(
			"liming month %d is not within the %d simulated months", s.LimeMonth, s.Months)
	}
	offset := float64(s.StartMonth - 1)

	st := State{Lake: m.Lake.InitialCa}
	f := &Forcing{
		Volume:   m.Lake.Volume(),
		InflowCa: m.Lake.InflowCa,
	}
	rhs := func(t float64, y, dy []float64) {
		d := s.Kinetics.Derivative(State{Lake: y[0], Bottom: y[1]}, t, f)
		dy[0], dy[1] = d.Lake, d.Bottom
	}

	res := &Result{
		Product:   m.Product.Name,
		Partition: *m.Partition,
		Rows:      make([]Row, 0, s.Months*(nt-1)+1),
	}
	ts := make([]float64, nt)
	for i := 0; i < s.Months; i++ {
		f.Flow = m.Flows[m.calendarMonth(i)-1]
		if i == dose {
			st.Lake += m.Partition.Inst
			st.Bottom += m.Partition.Bottom
			f.Deposits = append(f.Deposits, Deposit{Time: float64(i), Amount: m.Partition.Bottom})
		}
		floats.Span(ts, float64(i), float64(i+1))
		ts[nt-1] = float64(i + 1)
		y, err := ode.Solve(rhs, []float64{st.Lake, st.Bottom}, ts, m.Solver)
		if err != nil {
			return nil, fmt.Errorf("lakelime: month %d: %w", i, err)
		}
		if len(res.Rows) > 0 {
			res.Rows = res.Rows[:len(res.Rows)-1]
		}
		for j, yj := range y {
			month := ts[j] + offset
			dCa := yj[0] - m.Lake.InitialCa
			res.Rows = append(res.Rows, Row{
				Month:   month,
				Date:    MonthDate(month),
				DeltaCa: dCa,
				Bottom:  yj[1],
				PH:      m.PH.PH(dCa),
			})
		}
		last := y[len(y)-1]
		st = State{Lake: last[0], Bottom: last[1]}
		log.WithFields(logrus.Fields{
			"product": m.Product.Name,
			"month":   i,
			"flow":    f.Flow,
			"C_lake":  st.Lake,
			"C_bott":  st.Bottom,
		}).Debug("simulated month")
	}
	return res, nil
}

// Column returns the named variable ("Month", "DeltaCa", "Bottom" or
// "PH") for every output time.
func (r *Result) Column(name string) ([]float64, error) {
	var get func(Row) float64
	switch name {
	case "Month":
		get = func(r Row) float64 { return r.Month }
	case "DeltaCa":
		get = func(r Row) float64 { return r.DeltaCa }
	case "Bottom":
		get = func(r Row) float64 { return r.Bottom }
	case "PH":
		get = func(r Row) float64 { return r.PH }
	default:
		return nil, fmt.Errorf("lakelime: no result variable %q: %w", name, ErrLookup)
	}
	o := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		o[i] = get(row)
	}
	return o, nil
}

// Variables returns the names of the variables available from Column.
func (r *Result) Variables() []string {
	return []string{"Month", "DeltaCa", "Bottom", "PH"}
}
