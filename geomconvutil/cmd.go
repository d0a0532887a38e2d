/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package geomconvutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geomconv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is where the commands report progress and per-record failures.
var Log = logrus.New()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to geomconv.
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
			name: "LogLevel",
			usage: `
              LogLevel sets how much is logged: one of panic, fatal, error,
              warning, info, or debug.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the file holding the geometries to convert, one
              per line. If it is empty, standard input is read.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "InputFormat",
			usage: `
              InputFormat is the encoding of each input line: wkt, wkbhex,
              or geojson.`,
			defaultVal: "wkt",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is where the converted geometries are written. Files
              ending in .shp are written as shapefiles; anything else gets
              one WKT geometry per line. If it is empty, WKT is written to
              standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Widening",
			usage: `
              Widening is a comma-separated list of the single geometry
              types that are converted into one-element collections:
              polygon, point, linestring, or none.`,
			defaultVal: geomconv.DefaultWidening.String(),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "ZPolicy",
			usage: `
              ZPolicy says what to do with Z and M ordinates: drop discards
              them and reject fails the record.`,
			defaultVal: geomconv.DropZ.String(),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Fallback",
			usage: `
              Fallback selects the conversion path: none converts directly,
              pivot always converts through Well-Known Text, and auto
              retries records the direct path cannot convert through
              Well-Known Text.`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "InputSR",
			usage: `
              InputSR is the spatial reference of the input geometries
              as a WKT or PROJ4 string. The geometries are only
              reprojected when both InputSR and OutputSR are set.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "OutputSR",
			usage: `
              OutputSR is the spatial reference to reproject the converted
              geometries to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "SkipInvalid",
			usage: `
              SkipInvalid specifies whether records that cannot be converted
              are logged and left out instead of stopping the run.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of records converted at the same time.`,
			shorthand:  "w",
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), checkCmd.Flags()},
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance is the largest coordinate difference check accepts
              between the direct and Well-Known Text conversions.`,
			defaultVal: 1.e-9,
			flagsets:   []*pflag.FlagSet{checkCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOMCONV")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(checkCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geomconv: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("geomconv: invalid LogLevel: %v", err)
	}
	Log.Level = level
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geomconv",
	Short: "Convert geometries between go-geom and ctessum/geom.",
	Long: `geomconv converts geometries stored in flat coordinate buffers
(github.com/twpayne/go-geom) into the ctessum/geom model and writes them as
Well-Known Text or shapefiles. Use the subcommands specified below to access
the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GEOMCONV_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geomconv.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "geomconv v%s\n", geomconv.Version)
	},
	DisableAutoGenTag: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert geometries.",
	Long: `convert reads native geometries from InputFile, converts each one
into the target model, and writes the results to OutputFile in input order.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := converterFromConfig(Cfg)
		if err != nil {
			return err
		}
		fallback, err := parseFallback(Cfg.GetString("Fallback"))
		if err != nil {
			return err
		}
		workers, err := workersFromConfig(Cfg)
		if err != nil {
			return err
		}
		t, err := transformFromConfig(Cfg.GetString("InputSR"), Cfg.GetString("OutputSR"))
		if err != nil {
			return err
		}
		recs, err := readInput(os.ExpandEnv(Cfg.GetString("InputFile")), Cfg.GetString("InputFormat"), os.Stdin)
		if err != nil {
			return err
		}
		p := &Pipeline{
			Converter:   c,
			Fallback:    fallback,
			Transform:   t,
			Workers:     workers,
			SkipInvalid: Cfg.GetBool("SkipInvalid"),
			Log:         Log,
		}
		out, err := p.Run(context.Background(), recs)
		if err != nil {
			return err
		}
		return writeOutput(os.ExpandEnv(Cfg.GetString("OutputFile")), Cfg.GetString("OutputSR"), out, cmd.OutOrStdout())
	},
	DisableAutoGenTag: true,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compare the direct and Well-Known Text conversions.",
	Long: `check converts every geometry in InputFile both directly and through
Well-Known Text and reports each record where the two results differ by more
than Tolerance or where only one of them succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := converterFromConfig(Cfg)
		if err != nil {
			return err
		}
		workers, err := workersFromConfig(Cfg)
		if err != nil {
			return err
		}
		tol, err := toleranceFromConfig(Cfg)
		if err != nil {
			return err
		}
		recs, err := readInput(os.ExpandEnv(Cfg.GetString("InputFile")), Cfg.GetString("InputFormat"), os.Stdin)
		if err != nil {
			return err
		}
		return check(context.Background(), c, recs, tol, workers, cmd.OutOrStdout(), Log)
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration.",
	Long: `config prints the configuration that the other commands would use,
after combining the configuration file, environment variables, and flags,
in TOML format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd.OutOrStdout(), Cfg)
	},
	DisableAutoGenTag: true,
}

// converterFromConfig creates a Converter from the Widening and ZPolicy
// options.
func converterFromConfig(cfg *viper.Viper) (geomconv.Converter, error) {
	w, err := geomconv.ParseWidening(cfg.GetString("Widening"))
	if err != nil {
		return geomconv.Converter{}, err
	}
	z, err := geomconv.ParseZPolicy(cfg.GetString("ZPolicy"))
	if err != nil {
		return geomconv.Converter{}, err
	}
	return geomconv.New(geomconv.Options{Widening: w, ZPolicy: z}), nil
}

// Fallback selects when the Well-Known Text path is used.
type Fallback int

const (
	// NoFallback only uses the direct conversion.
	NoFallback Fallback = iota
	// AlwaysPivot always converts through Well-Known Text.
	AlwaysPivot
	// AutoFallback retries through Well-Known Text when the direct
	// conversion reports an unsupported variant or a degenerate geometry.
	AutoFallback
)

func parseFallback(s string) (Fallback, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return NoFallback, nil
	case "pivot":
		return AlwaysPivot, nil
	case "auto":
		return AutoFallback, nil
	default:
		return NoFallback, fmt.Errorf("geomconv: invalid Fallback %q; valid options are none, pivot, and auto", s)
	}
}
