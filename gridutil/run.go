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

// Package gridutil contains the command-line interface to gridcast and
// the file handling it needs: configuration, reading and writing
// datasets, and transfers to and from remote storage.
package gridutil

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridcast"
	"github.com/spatialmodel/gridcast/batch"
	"github.com/spatialmodel/gridcast/display"
	"github.com/spatialmodel/gridcast/hillshade"
	"github.com/spatialmodel/gridcast/mesh"
	"github.com/spatialmodel/gridcast/notebook"
)

// readDataset reads the netCDF dataset at path, downloading it first
// if necessary.
func readDataset(ctx context.Context, path string) (*gridcast.Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("gridutil: you need to specify an input file (for example: --Input=\"input.nc\")")
	}
	local, err := maybeDownload(ctx, path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(local)
	if err != nil {
		return nil, fmt.Errorf("gridutil: opening input: %v", err)
	}
	defer f.Close()
	ds, err := gridcast.ReadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("gridutil: reading %s: %v", path, err)
	}
	return ds, nil
}

// createOutput creates the output file at path and calls write with
// it, uploading the result if path is a blob storage location.
func createOutput(ctx context.Context, path string, write func(*os.File) error) error {
	if err := checkOutputFile(ctx, path); err != nil {
		return err
	}
	u := new(uploader)
	local := u.maybeUpload(path)
	if u.err != nil {
		return fmt.Errorf("gridutil: preparing upload: %v", u.err)
	}
	f, err := os.Create(local)
	if err != nil {
		return fmt.Errorf("gridutil: creating output: %v", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logrus.WithField("file", path).Info("gridutil: wrote output")
	return u.uploadOutput(ctx)
}

// Hillshade calculates the hillshade of variable elevVar of the dataset
// at input and writes the dataset with an added "hillshade" variable
// to output. If groupBy is not empty, the shading is calculated
// separately for each label along that dimension.
func Hillshade(ctx context.Context, input, output, elevVar, groupBy string, o hillshade.Options, workers int) error {
	ds, err := readDataset(ctx, input)
	if err != nil {
		return err
	}
	h, err := hillshade.Dataset(ds, elevVar, groupBy, o, workers)
	if err != nil {
		return err
	}
	delete(ds.Vars, h.Name)
	if err := ds.Add(h); err != nil {
		return err
	}
	return createOutput(ctx, output, ds.Write)
}

// Mesh creates a structured grid from the dataset at input and writes
// it to output in the legacy VTK format.
func Mesh(ctx context.Context, input, output string, o mesh.Options) error {
	ds, err := readDataset(ctx, input)
	if err != nil {
		return err
	}
	g, err := mesh.New(ds, o)
	if err != nil {
		return err
	}
	return createOutput(ctx, output, func(f *os.File) error { return g.WriteVTK(f) })
}

// Batch runs an expression model separately for each label along
// dimension dim of the dataset at input and writes the merged results
// to output. The model is read from modelFile, if it is not empty, and
// outputs and params are added to it.
func Batch(ctx context.Context, input, output, dim, modelFile string, outputs map[string]string,
	params map[string]float64, workers int) error {
	m := &batch.ExprModel{
		Outputs: make(map[string]string),
		Params:  make(map[string]float64),
	}
	if modelFile != "" {
		local, err := maybeDownload(ctx, modelFile)
		if err != nil {
			return err
		}
		f, err := os.Open(local)
		if err != nil {
			return fmt.Errorf("gridutil: opening model file: %v", err)
		}
		m, err = batch.LoadExprModel(f)
		f.Close()
		if err != nil {
			return err
		}
		if m.Params == nil {
			m.Params = make(map[string]float64)
		}
	}
	for k, v := range outputs {
		m.Outputs[k] = v
	}
	for k, v := range params {
		m.Params[k] = v
	}
	if len(m.Outputs) == 0 {
		return fmt.Errorf("gridutil: the batch model has no outputs; specify Batch.ModelFile or Batch.Outputs")
	}

	ds, err := readDataset(ctx, input)
	if err != nil {
		return err
	}
	r := &batch.Runner{Dim: dim, Workers: workers}
	out, err := r.Run(ds, m)
	if err != nil {
		return err
	}
	return createOutput(ctx, output, out.Write)
}

// Notebooks executes every notebook below root with papermill. If xvfb
// is true, a virtual X display with the given number is started first
// and stopped when the notebooks are finished.
func Notebooks(ctx context.Context, root, papermill, kernel string, xvfb bool, displayNum int) error {
	if xvfb {
		s, err := display.Start(ctx, display.Config{Display: displayNum})
		if err != nil {
			return err
		}
		defer s.Close()
	}
	r := &notebook.Runner{
		Executor: notebook.Papermill{Executable: papermill, Kernel: kernel},
	}
	return r.RunAll(ctx, root)
}
