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
	"strings"

	"github.com/lakelime/lakelime"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	lakeSets := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{runCmd.Flags(), compareCmd.Flags(), lakeCmd.Flags()}
	}
	scenarioSets := func() []*pflag.FlagSet {
		return []*pflag.FlagSet{runCmd.Flags(), compareCmd.Flags()}
	}

	// Options are the configuration options available to LakeLime.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Lake.Area",
			usage: `
              Lake.Area is the lake surface area in km².`,
			defaultVal: 0.2,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.Depth",
			usage: `
              Lake.Depth is the mean lake depth in metres.`,
			defaultVal: 5.,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.ResidenceTime",
			usage: `
              Lake.ResidenceTime is the mean annual residence time of water
              in the lake in years.`,
			defaultVal: 0.7,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.FlowProfile",
			usage: `
              Lake.FlowProfile is the name of the flow typology giving the
              typical flow in each month relative to the annual mean flow.
              The built-in typologies are 'none', 'fjell' and 'kyst'.`,
			defaultVal: "fjell",
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.PH0",
			usage: `
              Lake.PH0 is the initial lake pH. It must be between 4.5 and 6.5.`,
			defaultVal: 4.5,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.TOC0",
			usage: `
              Lake.TOC0 is the initial total organic carbon concentration in
              the lake in mg/l. It selects the titration curve used to
              calculate pH.`,
			defaultVal: 4.,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.InitialCa",
			usage: `
              Lake.InitialCa is the Ca-equivalent concentration in the lake
              before liming in mg/l.`,
			defaultVal: 0.,
			flagsets:   lakeSets(),
		},
		{
			name: "Lake.InflowCa",
			usage: `
              Lake.InflowCa is the Ca-equivalent concentration of the water
              flowing into the lake in mg/l.`,
			defaultVal: 0.,
			flagsets:   lakeSets(),
		},
		{
			name: "ProductDatabase",
			usage: `
              ProductDatabase is the path to a lime product database. It can be
              an Excel file with one column per product or a TOML file. If it
              is empty the built-in products are used. It can include
              environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags(), compareCmd.Flags(), productsCmd.Flags()},
		},
		{
			name: "FlowTypologyFile",
			usage: `
              FlowTypologyFile is the path to an Excel file of monthly flow
              typologies. If it is empty the built-in typologies are used.`,
			defaultVal: "",
			flagsets:   lakeSets(),
		},
		{
			name: "TitrationCurveFile",
			usage: `
              TitrationCurveFile is the path to an Excel file of titration
              curves for each TOC band. If it is empty the built-in curves
              are used.`,
			defaultVal: "",
			flagsets:   scenarioSets(),
		},
		{
			name: "Product",
			usage: `
              Product is the name of the lime product to simulate.`,
			shorthand:  "p",
			defaultVal: "SK2",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "Products",
			usage: `
              Products is a list of lime products to compare. If it is empty
              all products in the database are compared.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "Liming.Dose",
			usage: `
              Liming.Dose is the amount of lime product added in mg/l. It must
              be between 0 and 85.`,
			defaultVal: 10.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Liming.LimeMonth",
			usage: `
              Liming.LimeMonth is the calendar month (1-12) when the lime is
              added.`,
			defaultVal: 1.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Liming.StartMonth",
			usage: `
              Liming.StartMonth is the calendar month (1-12) when the simulation
              starts. If it is 0 the simulation starts in the liming month.`,
			defaultVal: 0.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Liming.Method",
			usage: `
              Liming.Method is the spreading method, either 'wet' or 'dry'.`,
			defaultVal: "wet",
			flagsets:   scenarioSets(),
		},
		{
			name: "Liming.SpreadProportion",
			usage: `
              Liming.SpreadProportion is the fraction of the lake surface that
              is limed.`,
			defaultVal: 0.5,
			flagsets:   scenarioSets(),
		},
		{
			name: "Liming.FSol",
			usage: `
              Liming.FSol is the fraction of the lime settling on the lake
              bottom that remains available for slow dissolution.`,
			defaultVal: 1.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Kinetics.Policy",
			usage: `
              Kinetics.Policy selects how lime on the lake bottom dissolves:
              'exponential' for first-order release with rate Kinetics.KL, or
              'saturation' for dissolution that slows as the lake approaches
              Kinetics.CaAqSat.`,
			defaultVal: lakelime.SaturationName,
			flagsets:   scenarioSets(),
		},
		{
			name: "Kinetics.KL",
			usage: `
              Kinetics.KL is the release rate constant of the exponential
              policy in 1/month.`,
			defaultVal: 1.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Kinetics.RateConst",
			usage: `
              Kinetics.RateConst is the initial dissolution rate of the
              saturation policy in 1/month.`,
			defaultVal: 1.,
			flagsets:   scenarioSets(),
		},
		{
			name: "Kinetics.ActivityConst",
			usage: `
              Kinetics.ActivityConst is the rate at which bottom lime becomes
              inactive in the saturation policy in 1/month.`,
			defaultVal: 0.1,
			flagsets:   scenarioSets(),
		},
		{
			name: "Kinetics.CaAqSat",
			usage: `
              Kinetics.CaAqSat is the saturation Ca concentration of the
              saturation policy in mg/l.`,
			defaultVal: 8.5,
			flagsets:   scenarioSets(),
		},
		{
			name: "Months",
			usage: `
              Months is the number of months to simulate.`,
			shorthand:  "n",
			defaultVal: 24.,
			flagsets:   scenarioSets(),
		},
		{
			name: "TimeStep",
			usage: `
              TimeStep is the output interval as a fraction of a month. It
              must be at least 0.0001 and less than 1, and does not affect
              the accuracy of the solution.`,
			defaultVal: 0.01,
			flagsets:   scenarioSets(),
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the desired output file. Files
              ending in '.xlsx' are written as Excel workbooks and all others
              as CSV. It can include environment variables.`,
			defaultVal: "lakelime_output.csv",
			flagsets:   scenarioSets(),
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies which model variables should be included
              in the output file. Each output variable is defined by the
              desired name and an expression that can be used to calculate it
              (in the form VariableName = "Expression"). These expressions can
              utilize the variables Month, DeltaCa, Bottom and PH and the
              functions exp(x), log10(x) and caco3(x), which converts a Ca
              concentration to CaCO3.`,
			defaultVal: map[string]string{"DeltaCa": "DeltaCa", "pH": "PH"},
			flagsets:   scenarioSets(),
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can
              include environment variables. If LogFile is left blank, the
              logfile will be saved in the same location as the OutputFile.`,
			defaultVal: "",
			flagsets:   scenarioSets(),
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages to record: one of
              'debug', 'info', 'warning' or 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ColumnTest.Template",
			usage: `
              ColumnTest.Template is the path to a completed column test
              template Excel file.`,
			shorthand:  "t",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
		{
			name: "ColumnTest.Method",
			usage: `
              ColumnTest.Method is the integration method used to average
              concentrations over the column depth: 'trapezoidal' or 'simpson'.`,
			defaultVal: "trapezoidal",
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
		{
			name: "ColumnTest.Element",
			usage: `
              ColumnTest.Element is the element to analyse, 'Ca' or 'Mg'.`,
			defaultVal: "Ca",
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
		{
			name: "ColumnTest.ColumnDepth",
			usage: `
              ColumnTest.ColumnDepth is the length of the test columns in
              metres.`,
			defaultVal: 1.6,
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
		{
			name: "ColumnTest.DryFactor",
			usage: `
              ColumnTest.DryFactor is the factor applied to instantaneous
              dissolution when the tested product is spread dry.`,
			defaultVal: 0.7,
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
		{
			name: "ColumnTest.OutputFile",
			usage: `
              ColumnTest.OutputFile is the path of a TOML product database to
              write the calibrated product to. If it is empty the product is
              only printed.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{coltestCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LAKELIME")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, v, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, v, option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, v, option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, v, option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, v, option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, v, option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				s := b.String()
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		Cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(compareCmd)
	Root.AddCommand(coltestCmd)
	Root.AddCommand(lakeCmd)
	Root.AddCommand(productsCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("lakelime: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "lakelime",
	Short: "A calcium and pH model of limed lakes.",
	Long: `LakeLime simulates the change in calcium concentration and pH of a lake
after a lime product is added, and reduces the column tests used to
characterize lime products.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'LAKELIME_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of LakeLime.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("LakeLime v%s\n", lakelime.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd simulates a single lime product.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate liming of a lake with one product.",
	Long: `run simulates the change in Ca-equivalent concentration and pH of a lake
after the product specified by the Product variable is added, and writes
the results to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(Cfg)
		if err != nil {
			return err
		}
		return Run(cmd, s, []string{Cfg.GetString("Product")})
	},
	DisableAutoGenTag: true,
}

// compareCmd simulates several lime products with the same scenario.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare lime products.",
	Long: `compare simulates the same liming scenario for each of the products in
the Products variable (or every product in the database) and writes all of
the results to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(Cfg)
		if err != nil {
			return err
		}
		names := expandStringSlice(Cfg.GetStringSlice("Products"))
		if len(names) == 0 {
			names = s.Store.Names()
		}
		return Run(cmd, s, names)
	},
	DisableAutoGenTag: true,
}

// coltestCmd reduces a column test template.
var coltestCmd = &cobra.Command{
	Use:   "coltest",
	Short: "Calculate lime product properties from column tests.",
	Long: `coltest reads a completed column test template and calculates the
instantaneous dissolution and overdosing factors of the tested product.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ColumnTestConfig(Cfg)
		if err != nil {
			return err
		}
		return ColumnTest(cmd, c)
	},
	DisableAutoGenTag: true,
}

// lakeCmd prints the hydrology of the configured lake.
var lakeCmd = &cobra.Command{
	Use:   "lake",
	Short: "Print the lake volume and monthly flows.",
	Long: `lake prints the volume of the configured lake and its outflow in each
calendar month.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l, err := LakeConfig(Cfg)
		if err != nil {
			return err
		}
		ft, err := loadFlowTypologies(Cfg.GetString("FlowTypologyFile"))
		if err != nil {
			return err
		}
		return PrintLake(cmd.OutOrStdout(), l, ft)
	},
	DisableAutoGenTag: true,
}

// productsCmd lists the products in the database.
var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the lime products in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := ProductRepositoryConfig(Cfg)
		if err != nil {
			return err
		}
		store, err := repo.Load()
		if err != nil {
			return err
		}
		return PrintProducts(cmd.OutOrStdout(), store)
	},
	DisableAutoGenTag: true,
}
