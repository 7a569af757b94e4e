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

package gridcast

import (
	"fmt"
	"sort"
)

// Dataset is a collection of named arrays that agree on the
// coordinates of the dimensions they share.
type Dataset struct {
	Vars map[string]*Array
}

// NewDataset creates a dataset from the given arrays, which are
// stored under their names.
func NewDataset(vars ...*Array) (*Dataset, error) {
	d := &Dataset{Vars: make(map[string]*Array, len(vars))}
	for _, v := range vars {
		if err := d.Add(v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Add adds v to the dataset under v.Name.
func (d *Dataset) Add(v *Array) error {
	if v.Name == "" {
		return fmt.Errorf("gridcast: can't add an unnamed array to a dataset")
	}
	if _, ok := d.Vars[v.Name]; ok {
		return fmt.Errorf("gridcast: dataset already has variable '%s'", v.Name)
	}
	for i, dim := range v.Dims {
		c, ok := d.Coord(dim)
		if ok && !equalFloats(c, v.Coords[i]) {
			return fmt.Errorf("gridcast: variable '%s' has coordinates along '%s' that differ from the dataset's",
				v.Name, dim)
		}
	}
	if d.Vars == nil {
		d.Vars = make(map[string]*Array)
	}
	d.Vars[v.Name] = v
	return nil
}

// Var returns the variable with the given name.
func (d *Dataset) Var(name string) (*Array, error) {
	v, ok := d.Vars[name]
	if !ok {
		return nil, fmt.Errorf("gridcast: dataset has no variable '%s'; variables are %v", name, d.Names())
	}
	return v, nil
}

// Names returns the sorted variable names.
func (d *Dataset) Names() []string {
	names := make([]string, 0, len(d.Vars))
	for n := range d.Vars {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dims returns the sorted names of all dimensions in the dataset.
func (d *Dataset) Dims() []string {
	seen := make(map[string]struct{})
	var dims []string
	for _, v := range d.Vars {
		for _, dim := range v.Dims {
			if _, ok := seen[dim]; !ok {
				seen[dim] = struct{}{}
				dims = append(dims, dim)
			}
		}
	}
	sort.Strings(dims)
	return dims
}

// Coord returns the coordinates of dimension dim and whether any
// variable in the dataset has that dimension.
func (d *Dataset) Coord(dim string) ([]float64, bool) {
	for _, name := range d.Names() {
		if c, err := d.Vars[name].Coord(dim); err == nil {
			return c, true
		}
	}
	return nil, false
}

// Take returns a dataset with the given positions along dim. Variables
// without dimension dim are copied unchanged.
func (d *Dataset) Take(dim string, indices []int) (*Dataset, error) {
	if _, ok := d.Coord(dim); !ok {
		return nil, &DimensionNotFoundError{Dim: dim, Dims: d.Dims()}
	}
	o := &Dataset{Vars: make(map[string]*Array, len(d.Vars))}
	for name, v := range d.Vars {
		if !v.HasDim(dim) {
			o.Vars[name] = v.Copy()
			continue
		}
		t, err := v.Take(dim, indices)
		if err != nil {
			return nil, err
		}
		o.Vars[name] = t
	}
	return o, nil
}

// Squeeze removes the length-one dimension dim from every variable
// that has it.
func (d *Dataset) Squeeze(dim string) (*Dataset, error) {
	o := &Dataset{Vars: make(map[string]*Array, len(d.Vars))}
	for name, v := range d.Vars {
		if !v.HasDim(dim) {
			o.Vars[name] = v.Copy()
			continue
		}
		s, err := v.Squeeze(dim)
		if err != nil {
			return nil, err
		}
		o.Vars[name] = s
	}
	return o, nil
}

// GroupBy groups the positions along dim by distinct coordinate label,
// in order of first appearance.
func (d *Dataset) GroupBy(dim string) ([]Group, error) {
	c, ok := d.Coord(dim)
	if !ok {
		return nil, &DimensionNotFoundError{Dim: dim, Dims: d.Dims()}
	}
	return groupLabels(c), nil
}

// ConcatDatasets joins datasets along dim. Variables that lack dim in
// every part are kept once if they are equal in every part. Otherwise
// each copy that lacks dim is given it, with the corresponding entry
// of labels as its coordinate, and the copies are concatenated along
// dim.
func ConcatDatasets(dim string, labels []float64, parts []*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return nil, reassemblyErrorf(dim, "no datasets to concatenate")
	}
	if len(labels) != len(parts) {
		return nil, reassemblyErrorf(dim, "%d labels for %d datasets", len(labels), len(parts))
	}
	for i, p := range parts {
		if p == nil {
			return nil, reassemblyErrorf(dim, "part %d is nil", i)
		}
	}
	o := &Dataset{Vars: make(map[string]*Array)}
	for _, name := range parts[0].Names() {
		vars := make([]*Array, len(parts))
		withDim := 0
		for i, p := range parts {
			v, ok := p.Vars[name]
			if !ok || v == nil {
				return nil, reassemblyErrorf(dim, "variable '%s' is missing from part %d", name, i)
			}
			if v.HasDim(dim) {
				withDim++
			}
			vars[i] = v
		}
		if withDim == 0 && allEqual(vars) {
			o.Vars[name] = vars[0].Copy()
			continue
		}
		// Missing dimensions are inserted where the other parts have it.
		axis := 0
		for _, v := range vars {
			if a, err := v.Axis(dim); err == nil {
				axis = a
				break
			}
		}
		for i, v := range vars {
			if v.HasDim(dim) {
				continue
			}
			var err error
			if vars[i], err = v.ExpandDims(dim, labels[i], axis); err != nil {
				return nil, err
			}
		}
		c, err := Concat(dim, vars...)
		if err != nil {
			return nil, fmt.Errorf("gridcast: concatenating variable '%s': %w", name, err)
		}
		o.Vars[name] = c
	}
	for i, p := range parts[1:] {
		for name := range p.Vars {
			if _, ok := o.Vars[name]; !ok {
				return nil, reassemblyErrorf(dim, "variable '%s' in part %d is missing from part 0", name, i+1)
			}
		}
	}
	return o, nil
}

func allEqual(vars []*Array) bool {
	for _, v := range vars[1:] {
		if !v.Equal(vars[0]) {
			return false
		}
	}
	return true
}
