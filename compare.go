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
	"sync"

	"github.com/GaryBoone/GoStats/stats"
	"github.com/sirupsen/logrus"
)

// ProductRun is the result of simulating one product in a comparison.
type ProductRun struct {
	Product string
	Result  *Result
	Summary Summary
}

// Compare simulates scenario s in lake l once for each of the named
// products in store. The simulations run concurrently and share the
// read-only tables. Results are returned in the order of names. If log
// is nil the logrus standard logger is used.
func Compare(l *Lake, store *ProductCurveStore, names []string, s Scenario, t *Tables, log logrus.FieldLogger) ([]*ProductRun, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("lakelime: no products to compare: %w", ErrInvalidArgument)
	}
	if t == nil {
		t = DefaultTables()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	models := make([]*Model, len(names))
	for i, n := range names {
		p, err := store.Product(n)
		if err != nil {
			return nil, err
		}
		if models[i], err = NewModel(l, p, s, t); err != nil {
			return nil, fmt.Errorf("lakelime: product %q: %w", n, err)
		}
		models[i].Log = log
	}

	runs := make([]*ProductRun, len(names))
	errs := make([]error, len(names))
	var wg sync.WaitGroup
	wg.Add(len(models))
	for i, m := range models {
		go func(i int, m *Model) {
			defer wg.Done()
			r, err := m.Run()
			if err != nil {
				errs[i] = fmt.Errorf("lakelime: product %q: %w", names[i], err)
				return
			}
			runs[i] = &ProductRun{Product: names[i], Result: r, Summary: Summarize(r)}
		}(i, m)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Summary holds summary statistics of a simulation.
type Summary struct {
	MeanDeltaCa, MaxDeltaCa float64 // [mg/l]
	MinPH, MaxPH, FinalPH   float64
}

// Summarize calculates summary statistics of r.
func Summarize(r *Result) Summary {
	if len(r.Rows) == 0 {
		return Summary{}
	}
	ca := make([]float64, len(r.Rows))
	ph := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		ca[i] = row.DeltaCa
		ph[i] = row.PH
	}
	return Summary{
		MeanDeltaCa: stats.StatsMean(ca),
		MaxDeltaCa:  stats.StatsMax(ca),
		MinPH:       stats.StatsMin(ph),
		MaxPH:       stats.StatsMax(ph),
		FinalPH:     ph[len(ph)-1],
	}
}
