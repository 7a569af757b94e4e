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

// Package batch runs a model independently for every position of a
// batch dimension of a dataset and merges the results.
package batch

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridcast"
)

// Model is a simulation that creates an output dataset from an input
// dataset.
type Model interface {
	Run(*gridcast.Dataset) (*gridcast.Dataset, error)
}

// ModelFunc adapts an ordinary function to the Model interface.
type ModelFunc func(*gridcast.Dataset) (*gridcast.Dataset, error)

// Run calls f(ds).
func (f ModelFunc) Run(ds *gridcast.Dataset) (*gridcast.Dataset, error) { return f(ds) }

// Runner runs a model once per batch group.
type Runner struct {
	// Dim is the batch dimension. Positions along Dim that share a
	// coordinate label are run together.
	Dim string

	// Workers is the maximum number of model runs at once.
	// Values below 2 run the groups one at a time.
	Workers int

	// Log receives progress information. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// Run runs m for each group of positions along r.Dim in ds. Groups with
// a single member are passed to m without the batch dimension. The
// outputs are merged along r.Dim: variables that have the dimension
// are concatenated, variables that are identical in every output are
// kept once, and other variables gain the dimension. If any run fails,
// no further runs are started and the first error is returned.
func (r *Runner) Run(ds *gridcast.Dataset, m Model) (*gridcast.Dataset, error) {
	groups, err := ds.GroupBy(r.Dim)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("batch: dimension '%s' has no elements", r.Dim)
	}
	labels := make([]float64, len(groups))
	outputs := make([]*gridcast.Dataset, len(groups))
	run := func(i int) error {
		g := groups[i]
		in, err := ds.Take(r.Dim, g.Indices)
		if err != nil {
			return err
		}
		if len(g.Indices) == 1 {
			if in, err = in.Squeeze(r.Dim); err != nil {
				return err
			}
		}
		r.log().WithFields(logrus.Fields{
			"dim":   r.Dim,
			"label": g.Label,
			"group": i,
			"of":    len(groups),
		}).Info("batch: running model")
		out, err := m.Run(in)
		if err != nil {
			return err
		}
		if out == nil {
			return fmt.Errorf("batch: model returned no output for %s=%g", r.Dim, g.Label)
		}
		labels[i] = g.Label
		outputs[i] = out
		return nil
	}

	if err := gridcast.Each(r.Workers, len(groups), run); err != nil {
		return nil, err
	}
	return gridcast.ConcatDatasets(r.Dim, labels, outputs)
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}
