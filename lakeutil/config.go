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
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/lakelime/lakelime"
	"github.com/lakelime/lakelime/coltest"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again")
	}
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.csv")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("lakelime: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkLogFile fills in a default value for the log file path if one isn't
// specified.
func checkLogFile(logFile, outputFile string) string {
	if logFile == "" {
		logFile = strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + ".log"
	}
	return os.ExpandEnv(logFile)
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("lakelime: parsing configuration variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("lakelime: invalid type for configuration variable %s: %#v", varName, i)
	}
}

// getWholeNumber returns a configuration variable that must be a whole
// number. Values with a fractional part are an error rather than being
// truncated.
func getWholeNumber(varName string, cfg *viper.Viper) (int, error) {
	v, err := cast.ToFloat64E(cfg.Get(varName))
	if err != nil {
		return 0, fmt.Errorf("lakelime: configuration variable %s: %v: %w", varName, err, lakelime.ErrInvalidArgument)
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("lakelime: configuration variable %s must be a whole number (is %g): %w",
			varName, v, lakelime.ErrInvalidArgument)
	}
	return int(v), nil
}

// LakeConfig unmarshals a viper configuration for a lake.
func LakeConfig(cfg *viper.Viper) (*lakelime.Lake, error) {
	return lakelime.NewLake(lakelime.Lake{
		Area:          cfg.GetFloat64("Lake.Area"),
		Depth:         cfg.GetFloat64("Lake.Depth"),
		ResidenceTime: cfg.GetFloat64("Lake.ResidenceTime"),
		FlowProfile:   os.ExpandEnv(cfg.GetString("Lake.FlowProfile")),
		PH0:           cfg.GetFloat64("Lake.PH0"),
		TOC0:          cfg.GetFloat64("Lake.TOC0"),
		InitialCa:     cfg.GetFloat64("Lake.InitialCa"),
		InflowCa:      cfg.GetFloat64("Lake.InflowCa"),
	})
}

// ScenarioConfig unmarshals a viper configuration for a liming scenario.
func ScenarioConfig(cfg *viper.Viper) (lakelime.Scenario, error) {
	var s lakelime.Scenario
	var err error
	if s.LimeMonth, err = getWholeNumber("Liming.LimeMonth", cfg); err != nil {
		return s, err
	}
	if s.StartMonth, err = getWholeNumber("Liming.StartMonth", cfg); err != nil {
		return s, err
	}
	if s.Months, err = getWholeNumber("Months", cfg); err != nil {
		return s, err
	}
	if s.Method, err = lakelime.ParseSpreadMethod(cfg.GetString("Liming.Method")); err != nil {
		return s, err
	}
	s.Kinetics, err = lakelime.NewKineticsPolicy(
		cfg.GetString("Kinetics.Policy"),
		cfg.GetFloat64("Kinetics.KL"),
		cfg.GetFloat64("Kinetics.RateConst"),
		cfg.GetFloat64("Kinetics.ActivityConst"),
		cfg.GetFloat64("Kinetics.CaAqSat"),
	)
	if err != nil {
		return s, err
	}
	s.Dose = cfg.GetFloat64("Liming.Dose")
	s.SpreadProportion = cfg.GetFloat64("Liming.SpreadProportion")
	s.FSol = cfg.GetFloat64("Liming.FSol")
	s.TimeStep = cfg.GetFloat64("TimeStep")
	return s, nil
}

// TablesConfig loads the flow typology and titration curve tables named
// in the configuration, falling back to the built-in tables for any
// that are not specified.
func TablesConfig(cfg *viper.Viper) (*lakelime.Tables, error) {
	t := lakelime.DefaultTables()
	var err error
	if t.Flow, err = loadFlowTypologies(cfg.GetString("FlowTypologyFile")); err != nil {
		return nil, err
	}
	if f := os.ExpandEnv(cfg.GetString("TitrationCurveFile")); f != "" {
		if t.Titration, err = LoadTitrationCurves(f); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func loadFlowTypologies(file string) (lakelime.FlowTypologies, error) {
	if f := os.ExpandEnv(file); f != "" {
		return LoadFlowTypologies(f)
	}
	return lakelime.DefaultFlowTypologies(), nil
}

// ProductRepositoryConfig returns the source of lime product data named
// by the ProductDatabase configuration variable. The file type is chosen
// by extension.
func ProductRepositoryConfig(cfg *viper.Viper) (lakelime.ProductRepository, error) {
	f := os.ExpandEnv(cfg.GetString("ProductDatabase"))
	switch strings.ToLower(filepath.Ext(f)) {
	case "":
		if f == "" {
			return lakelime.DefaultProducts(), nil
		}
	case ".xlsx":
		return &ExcelProducts{File: f}, nil
	case ".toml":
		return &TOMLProducts{File: f}, nil
	}
	return nil, fmt.Errorf("lakelime: ProductDatabase must be an .xlsx or .toml file (is %q): %w",
		f, lakelime.ErrInvalidArgument)
}

// Session holds everything needed to run or compare lime products.
type Session struct {
	Lake     *lakelime.Lake
	Store    *lakelime.ProductCurveStore
	Scenario lakelime.Scenario
	Tables   *lakelime.Tables

	OutputFile      string
	OutputVariables map[string]string
	LogFile         string
	LogLevel        string
}

// newSession unmarshals and checks a viper configuration for a
// simulation.
func newSession(cfg *viper.Viper) (*Session, error) {
	s := new(Session)
	var err error
	if s.Lake, err = LakeConfig(cfg); err != nil {
		return nil, err
	}
	if s.Scenario, err = ScenarioConfig(cfg); err != nil {
		return nil, err
	}
	if s.Tables, err = TablesConfig(cfg); err != nil {
		return nil, err
	}
	repo, err := ProductRepositoryConfig(cfg)
	if err != nil {
		return nil, err
	}
	if s.Store, err = repo.Load(); err != nil {
		return nil, err
	}
	if s.OutputFile, err = checkOutputFile(cfg.GetString("OutputFile")); err != nil {
		return nil, err
	}
	vars, err := GetStringMapString("OutputVariables", cfg)
	if err != nil {
		return nil, err
	}
	if s.OutputVariables, err = checkOutputVars(vars); err != nil {
		return nil, err
	}
	s.LogFile = checkLogFile(cfg.GetString("LogFile"), s.OutputFile)
	s.LogLevel = cfg.GetString("LogLevel")
	return s, nil
}

// ColumnTestSettings holds the configuration of the coltest command.
type ColumnTestSettings struct {
	Template    string
	Method      coltest.Method
	Element     coltest.Element
	ColumnDepth float64
	DryFactor   float64
	OutputFile  string
}

// ColumnTestConfig unmarshals a viper configuration for the column test
// reduction.
func ColumnTestConfig(cfg *viper.Viper) (*ColumnTestSettings, error) {
	c := &ColumnTestSettings{
		Template:    os.ExpandEnv(cfg.GetString("ColumnTest.Template")),
		ColumnDepth: cfg.GetFloat64("ColumnTest.ColumnDepth"),
		DryFactor:   cfg.GetFloat64("ColumnTest.DryFactor"),
		OutputFile:  os.ExpandEnv(cfg.GetString("ColumnTest.OutputFile")),
	}
	if c.Template == "" {
		return nil, fmt.Errorf("lakelime: you need to specify a column test template (ColumnTest.Template): %w",
			lakelime.ErrInvalidArgument)
	}
	var err error
	if c.Method, err = coltest.ParseMethod(cfg.GetString("ColumnTest.Method")); err != nil {
		return nil, err
	}
	switch e := coltest.Element(cfg.GetString("ColumnTest.Element")); e {
	case coltest.Ca, coltest.Mg:
		c.Element = e
	default:
		return nil, fmt.Errorf("lakelime: ColumnTest.Element must be %q or %q (is %q): %w",
			coltest.Ca, coltest.Mg, e, lakelime.ErrInvalidArgument)
	}
	return c, nil
}
