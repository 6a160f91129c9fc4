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

package lakeutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/lakelime/lakelime"
	"github.com/lakelime/lakelime/coltest"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// newLogger returns a logger that writes to the command output and to
// logFile. The returned function closes the log file.
func newLogger(cmd *cobra.Command, logFile, level string) (*logrus.Logger, func() error, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("lakelime: invalid LogLevel: %v", err)
	}
	f, err := os.Create(logFile)
	if err != nil {
		return nil, nil, fmt.Errorf("lakelime: problem creating log file: %v", err)
	}
	log := logrus.New()
	log.Out = io.MultiWriter(cmd.OutOrStdout(), f)
	log.Formatter = &logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	}
	log.Level = lvl
	return log, f.Close, nil
}

// Run simulates the lake in s once for each of the named products and
// writes the results to the output file. A summary of each simulation
// is printed to the command output.
func Run(cmd *cobra.Command, s *Session, names []string) error {
	startTime := time.Now()

	log, closeLog, err := newLogger(cmd, s.LogFile, s.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	o, err := NewOutputter(s.OutputFile, s.OutputVariables)
	if err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"products": strings.Join(names, ", "),
		"volume":   s.Lake.VolumeM3(),
		"flow":     s.Lake.MeanDischarge(),
	}).Info("starting simulation")

	runs, err := lakelime.Compare(s.Lake, s.Store, names, s.Scenario, s.Tables, log)
	if err != nil {
		return err
	}
	results := make([]*lakelime.Result, len(runs))
	for i, r := range runs {
		results[i] = r.Result
		log.WithFields(logrus.Fields{
			"product": r.Product,
			"C_inst":  r.Result.Partition.Inst,
			"C_bott":  r.Result.Partition.Bottom,
		}).Info("simulation complete")
	}
	if err := PrintSummary(cmd.OutOrStdout(), runs); err != nil {
		return err
	}

	log.WithField("file", s.OutputFile).Info("writing output")
	if err := o.Output(results...); err != nil {
		return err
	}
	log.WithField("duration", time.Since(startTime)).Info("LakeLime completed!")
	return nil
}

// PrintSummary writes summary statistics for each product.
func PrintSummary(w io.Writer, runs []*lakelime.ProductRun) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Product\tC_inst\tC_bott\tMean ΔCa\tMax ΔCa\tMin pH\tMax pH\tFinal pH")
	for _, r := range runs {
		sm := r.Summary
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f\t%.2f\t%.2f\n", r.Product,
			r.Result.Partition.Inst, r.Result.Partition.Bottom,
			sm.MeanDeltaCa, sm.MaxDeltaCa, sm.MinPH, sm.MaxPH, sm.FinalPH)
	}
	return tw.Flush()
}

// PrintLake writes the lake volume and monthly flows.
func PrintLake(w io.Writer, l *lakelime.Lake, ft lakelime.FlowTypologies) error {
	fmt.Fprintf(w, "Volume: %v\n", l.VolumeM3())
	fmt.Fprintf(w, "Mean annual flow: %.0f l/month (%v)\n", l.MeanAnnualFlow(), l.MeanDischarge())
	fmt.Fprintf(w, "Flow profile: %s\n", l.FlowProfile)
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Month\tFlow (l/month)\tDischarge")
	for m := 1; m <= 12; m++ {
		q, err := l.MonthlyFlow(m, ft)
		if err != nil {
			return err
		}
		d, err := l.Discharge(m, ft)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%.0f\t%v\n", time.Month(m), q, d)
	}
	return tw.Flush()
}

// PrintProducts writes the contents of a product store.
func PrintProducts(w io.Writer, store *lakelime.ProductCurveStore) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Product\tCa (%)\tMg (%)\tDry factor\tColumn depth (m)\tID\tOD")
	for _, name := range store.Names() {
		p, err := store.Product(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%g\t%v\t%v\n", p.Name, p.CaPct, p.MgPct,
			p.DryFactor, p.ColumnDepth, p.ID, p.OD)
	}
	return tw.Flush()
}

// ColumnTest reduces the column test template in c, prints the results
// and, if c.OutputFile is set, saves the calibrated product.
func ColumnTest(cmd *cobra.Command, c *ColumnTestSettings) error {
	tmpl, err := LoadColumnTest(c.Template)
	if err != nil {
		return err
	}
	r, err := coltest.Reduce(tmpl, c.Element, c.Method)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	p := tmpl.Parameters
	fmt.Fprintf(w, "Processing data for product: %s\n\n", p.ProductName)
	fmt.Fprintf(w, "Total %s content by mass: %g %%\n", c.Element, p.ElementPct(c.Element))
	fmt.Fprintf(w, "Concentration of lime added: %.1f mg/l\n", p.LimeConcentration())
	fmt.Fprintf(w, "%s concentration if all lime dissolved and well-mixed: %.2f mg/l\n\n",
		c.Element, p.FullyDissolved(c.Element))

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "Column\tpH\tDissolution (%)")
	for _, d := range r.Instantaneous {
		fmt.Fprintf(tw, "%s\t%g\t%.1f\n", d.Column, d.PH, d.DissolutionPct)
	}
	fmt.Fprintln(tw, "\t\t")
	fmt.Fprintln(tw, "Column\tLime added (mg/l)\tOverdosing factor (-)")
	for _, od := range r.Overdosing {
		fmt.Fprintf(tw, "%s\t%g\t%.2f\n", od.Column, od.LimeAdded, od.Factor)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.OutputFile == "" {
		return nil
	}
	if c.Element != coltest.Ca {
		return fmt.Errorf("lakelime: products can only be calibrated from Ca results (have %s): %w",
			c.Element, lakelime.ErrInvalidArgument)
	}
	lp, err := coltest.Calibrate(p, c.ColumnDepth, c.DryFactor, r)
	if err != nil {
		return err
	}
	db := &TOMLProducts{File: c.OutputFile}
	if err := db.Save(lp, "Calibrated from "+c.Template); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nSaved %q to %s\n", lp.Name, c.OutputFile)
	return nil
}
