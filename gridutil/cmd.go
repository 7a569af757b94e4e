/*
Copyright © 2026 the gridcast authors.
This file is part of gridcast.

gridcast is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridcast is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridcast.  If not, see <http://www.gnu.org/licenses/>.
*/

package gridutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridcast"
	"github.com/spatialmodel/gridcast/hillshade"
	"github.com/spatialmodel/gridcast/mesh"
	"github.com/spf13/cast"
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
	// Options are the configuration options available to gridcast.
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
              LogLevel is the minimum severity of log messages to print:
              one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input",
			usage: `
              Input is the path to the input netCDF dataset. It can be a local
              path, an http(s) URL, or a blob storage URL beginning with
              file://, s3://, or gs://. It can contain environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags(), meshCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Output",
			usage: `
              Output is the path where the output should be written. It can be a
              local path or a blob storage URL beginning with file://, s3://, or gs://.
              It can contain environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags(), meshCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the maximum number of partitions to process at once.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags(), batchCmd.Flags()},
		},
		{
			name: "Hillshade.Variable",
			usage: `
              Hillshade.Variable is the name of the elevation variable to shade.`,
			defaultVal: hillshade.DefaultVariable,
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags()},
		},
		{
			name: "Hillshade.GroupBy",
			usage: `
              Hillshade.GroupBy is the name of a dimension to calculate the
              shading separately for each label of, for example "time".
              If empty, the whole array is shaded at once.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags()},
		},
		{
			name: "Hillshade.Azimuth",
			usage: `
              Hillshade.Azimuth is the compass direction of the light source, in degrees.`,
			defaultVal: float64(hillshade.DefaultAzimuth),
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags()},
		},
		{
			name: "Hillshade.Altitude",
			usage: `
              Hillshade.Altitude is the angle of the light source above the
              horizon, in degrees.`,
			defaultVal: float64(hillshade.DefaultAltitude),
			flagsets:   []*pflag.FlagSet{hillshadeCmd.Flags()},
		},
		{
			name: "Mesh.Elevation",
			usage: `
              Mesh.Elevation is the name of the elevation variable.`,
			defaultVal: mesh.DefaultElevation,
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "Mesh.Vars",
			usage: `
              Mesh.Vars are the names of additional variables to attach
              to the grid points.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "Mesh.Warp",
			usage: `
              Mesh.Warp specifies whether the grid points should be displaced
              vertically by the elevation.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "Mesh.ScaleFactor",
			usage: `
              Mesh.ScaleFactor is the vertical exaggeration of the warped grid.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{meshCmd.Flags()},
		},
		{
			name: "Batch.Dim",
			usage: `
              Batch.Dim is the dimension to run the model separately for each
              label of.`,
			defaultVal: "batch",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Batch.ModelFile",
			usage: `
              Batch.ModelFile is the path to a TOML file with [Outputs],
              [Params], and [Units] tables that defines the model. It can be a
              local path, an http(s) URL, or a blob storage URL.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Batch.Outputs",
			usage: `
              Batch.Outputs maps output variable names to the expressions that
              calculate them. Outputs given here are added to or replace those
              in Batch.ModelFile.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Batch.Params",
			usage: `
              Batch.Params maps model parameter names to their values.
              Parameters given here are added to or replace those in
              Batch.ModelFile.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{batchCmd.Flags()},
		},
		{
			name: "Notebooks.Root",
			usage: `
              Notebooks.Root is the directory to search for notebooks in.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{notebooksCmd.Flags()},
		},
		{
			name: "Notebooks.Papermill",
			usage: `
              Notebooks.Papermill is the papermill command used to execute
              the notebooks.`,
			defaultVal: "papermill",
			flagsets:   []*pflag.FlagSet{notebooksCmd.Flags()},
		},
		{
			name: "Notebooks.Kernel",
			usage: `
              Notebooks.Kernel is the name of the kernel to execute the
              notebooks with.`,
			defaultVal: "python3",
			flagsets:   []*pflag.FlagSet{notebooksCmd.Flags()},
		},
		{
			name: "xvfb",
			usage: `
              xvfb specifies whether to start a virtual X display for the
              duration of the run, for notebooks that render off-screen.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{notebooksCmd.Flags()},
		},
		{
			name: "Xvfb.Display",
			usage: `
              Xvfb.Display is the number of the virtual X display.`,
			defaultVal: 99,
			flagsets:   []*pflag.FlagSet{notebooksCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GRIDCAST")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				json.NewEncoder(b).Encode(v)
				set.StringP(option.name, option.shorthand, b.String(), option.usage)
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
	Root.AddCommand(hillshadeCmd)
	Root.AddCommand(meshCmd)
	Root.AddCommand(batchCmd)
	Root.AddCommand(notebooksCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the logging level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridutil: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("gridutil: %v", err)
	}
	logrus.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gridcast",
	Short: "Apply array functions across labeled dimensions.",
	Long: `gridcast applies functions of gridded arrays across the batch and time
dimensions of netCDF datasets, runs models in batches, and executes notebooks.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GRIDCAST_var' where 'var' is the
name of the variable to be set. Paths are additionally allowed to contain
environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of gridcast.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("gridcast v%s\n", gridcast.Version)
	},
	DisableAutoGenTag: true,
}

// hillshadeCmd is a command that adds a hillshade variable to a dataset.
var hillshadeCmd = &cobra.Command{
	Use:   "hillshade",
	Short: "Calculate shaded relief.",
	Long: `hillshade calculates the shaded relief of the elevation variable of the
Input dataset and writes the dataset, with an added 'hillshade' variable, to Output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Hillshade(
			context.TODO(),
			os.ExpandEnv(Cfg.GetString("Input")),
			os.ExpandEnv(Cfg.GetString("Output")),
			Cfg.GetString("Hillshade.Variable"),
			Cfg.GetString("Hillshade.GroupBy"),
			hillshade.Options{
				Azimuth:  Cfg.GetFloat64("Hillshade.Azimuth"),
				Altitude: Cfg.GetFloat64("Hillshade.Altitude"),
			},
			Cfg.GetInt("Workers"),
		)
	},
	DisableAutoGenTag: true,
}

// meshCmd is a command that writes a dataset as a structured grid.
var meshCmd = &cobra.Command{
	Use:   "mesh",
	Short: "Create a 3D surface grid.",
	Long: `mesh creates a structured surface grid from the x and y coordinates and
the elevation variable of the Input dataset and writes it to Output in the
legacy VTK format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := cast.ToStringSliceE(Cfg.Get("Mesh.Vars"))
		if err != nil {
			return fmt.Errorf("gridutil: reading 'Mesh.Vars': %v", err)
		}
		vars = removeEmpty(vars)
		return Mesh(
			context.TODO(),
			os.ExpandEnv(Cfg.GetString("Input")),
			os.ExpandEnv(Cfg.GetString("Output")),
			mesh.Options{
				Elevation:   Cfg.GetString("Mesh.Elevation"),
				Vars:        vars,
				Warp:        Cfg.GetBool("Mesh.Warp"),
				ScaleFactor: Cfg.GetFloat64("Mesh.ScaleFactor"),
			},
		)
	},
	DisableAutoGenTag: true,
}

// batchCmd is a command that runs an expression model in batches.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a model for each batch label.",
	Long: `batch runs the model defined by Batch.ModelFile, Batch.Outputs, and
Batch.Params separately for each label along dimension Batch.Dim of the Input
dataset and writes the merged results to Output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputs, err := GetStringMapString("Batch.Outputs", Cfg)
		if err != nil {
			return err
		}
		params, err := getFloatMap("Batch.Params", Cfg)
		if err != nil {
			return err
		}
		return Batch(
			context.TODO(),
			os.ExpandEnv(Cfg.GetString("Input")),
			os.ExpandEnv(Cfg.GetString("Output")),
			Cfg.GetString("Batch.Dim"),
			os.ExpandEnv(Cfg.GetString("Batch.ModelFile")),
			outputs, params,
			Cfg.GetInt("Workers"),
		)
	},
	DisableAutoGenTag: true,
}

// notebooksCmd is a command that executes all notebooks in a directory.
var notebooksCmd = &cobra.Command{
	Use:   "notebooks",
	Short: "Execute notebooks.",
	Long: `notebooks executes every Jupyter notebook below Notebooks.Root in
sorted order using papermill, removing any zarr stores next to each notebook
first. Execution stops at the first failure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Notebooks(
			context.TODO(),
			os.ExpandEnv(Cfg.GetString("Notebooks.Root")),
			os.ExpandEnv(Cfg.GetString("Notebooks.Papermill")),
			Cfg.GetString("Notebooks.Kernel"),
			Cfg.GetBool("xvfb"),
			Cfg.GetInt("Xvfb.Display"),
		)
	},
	DisableAutoGenTag: true,
}
