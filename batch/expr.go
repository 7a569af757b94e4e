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

package batch

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/Knetic/govaluate"
	"github.com/spatialmodel/gridcast"
)

// ExprModel is a model whose outputs are calculated element-wise from
// expressions of dataset variables and scalar parameters. Outputs are
// calculated in alphabetical order, and an expression may use any
// output calculated before it.
type ExprModel struct {
	// Outputs maps output variable names to the expressions that
	// calculate them, for example "uplift_rate * dt - erosion".
	Outputs map[string]string

	// Params are scalar values that can be used in the expressions.
	// Parameters take precedence over dataset variables of the same name.
	Params map[string]float64

	// Units optionally gives the units of output variables.
	Units map[string]string
}

// LoadExprModel reads an ExprModel from a TOML file with [Outputs],
// [Params] and [Units] tables.
func LoadExprModel(r io.Reader) (*ExprModel, error) {
	m := new(ExprModel)
	if _, err := toml.DecodeReader(r, m); err != nil {
		return nil, fmt.Errorf("batch: reading model: %v", err)
	}
	if len(m.Outputs) == 0 {
		return nil, fmt.Errorf("batch: model has no outputs")
	}
	return m, nil
}

var exprFunctions = map[string]govaluate.ExpressionFunction{
	"exp":  unaryFunc("exp", math.Exp),
	"log":  unaryFunc("log", math.Log),
	"sqrt": unaryFunc("sqrt", math.Sqrt),
	"abs":  unaryFunc("abs", math.Abs),
}

func unaryFunc(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("batch: got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		v, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("batch: argument to function '%s' is %T, not a number", name, arg[0])
		}
		return f(v), nil
	}
}

// Run calculates the model outputs. The returned dataset holds the
// input variables and the outputs.
func (m *ExprModel) Run(ds *gridcast.Dataset) (*gridcast.Dataset, error) {
	out := &gridcast.Dataset{Vars: make(map[string]*gridcast.Array, len(ds.Vars)+len(m.Outputs))}
	for name, v := range ds.Vars {
		out.Vars[name] = v.Copy()
	}
	names := make([]string, 0, len(m.Outputs))
	for name := range m.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := out.Vars[name]; ok {
			return nil, fmt.Errorf("batch: output '%s' has the same name as an input variable", name)
		}
		v, err := m.eval(name, out)
		if err != nil {
			return nil, err
		}
		if err := out.Add(v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// eval evaluates output name for every element of its array operands.
func (m *ExprModel) eval(name string, ds *gridcast.Dataset) (*gridcast.Array, error) {
	expr, err := govaluate.NewEvaluableExpressionWithFunctions(m.Outputs[name], exprFunctions)
	if err != nil {
		return nil, fmt.Errorf("batch: output '%s': %v", name, err)
	}
	params := make(map[string]interface{})
	var arrays []string
	var shape *gridcast.Array
	for _, v := range expr.Vars() {
		if _, ok := params[v]; ok {
			continue
		}
		if p, ok := m.Params[v]; ok {
			params[v] = p
			continue
		}
		a, ok := ds.Vars[v]
		if !ok {
			return nil, fmt.Errorf("batch: output '%s': undefined variable '%s'", name, v)
		}
		if shape == nil {
			shape = a
		} else if !sameGrid(shape, a) {
			return nil, fmt.Errorf("batch: output '%s': variables '%s' and '%s' have different dimensions",
				name, shape.Name, v)
		}
		params[v] = nil
		arrays = append(arrays, v)
	}

	var result *gridcast.Array
	if shape == nil {
		result, err = gridcast.NewArray(name, nil, nil, nil)
	} else {
		result, err = gridcast.NewArray(name, append([]string(nil), shape.Dims...), gridcast.CopyCoords(shape.Coords), nil)
	}
	if err != nil {
		return nil, err
	}
	result.Units = m.Units[name]
	for i := range result.Elements {
		for _, v := range arrays {
			params[v] = ds.Vars[v].Elements[i]
		}
		r, err := expr.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("batch: output '%s': %v", name, err)
		}
		f, ok := r.(float64)
		if !ok {
			return nil, fmt.Errorf("batch: output '%s' evaluates to %T, not a number", name, r)
		}
		result.Elements[i] = f
	}
	return result, nil
}

// sameGrid returns whether a and b have the same dimensions and coordinates.
func sameGrid(a, b *gridcast.Array) bool {
	if len(a.Dims) != len(b.Dims) {
		return false
	}
	for i, d := range a.Dims {
		if b.Dims[i] != d || len(a.Coords[i]) != len(b.Coords[i]) {
			return false
		}
		for j, c := range a.Coords[i] {
			if b.Coords[i][j] != c {
				return false
			}
		}
	}
	return true
}
