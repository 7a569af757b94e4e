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
	"os"

	"github.com/ctessum/cdf"
)

// ReadDataset reads a dataset from a netCDF file. Variables with the
// same name as their only dimension are used as coordinates;
// dimensions without such a variable are labeled 0, 1, 2, ...
func ReadDataset(rw cdf.ReaderWriterAt) (*Dataset, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("gridcast.ReadDataset: %v", err)
	}
	h := f.Header
	isCoord := func(v string) bool {
		dims := h.Dimensions(v)
		return len(dims) == 1 && dims[0] == v
	}

	coords := make(map[string][]float64)
	for _, v := range h.Variables() {
		if !isCoord(v) {
			continue
		}
		c, err := readVar(f, v)
		if err != nil {
			return nil, err
		}
		coords[v] = c
	}

	d := &Dataset{Vars: make(map[string]*Array)}
	for _, v := range h.Variables() {
		if isCoord(v) {
			continue
		}
		if h.IsRecordVariable(v) {
			return nil, fmt.Errorf("gridcast.ReadDataset: variable '%s' uses the record dimension, "+
				"which is not supported", v)
		}
		data, err := readVar(f, v)
		if err != nil {
			return nil, err
		}
		dims := h.Dimensions(v)
		lengths := h.Lengths(v)
		cs := make([][]float64, len(dims))
		for i, dim := range dims {
			if c, ok := coords[dim]; ok {
				cs[i] = c
				continue
			}
			cs[i] = make([]float64, lengths[i])
			for j := range cs[i] {
				cs[i][j] = float64(j)
			}
		}
		a, err := NewArray(v, dims, cs, data)
		if err != nil {
			return nil, fmt.Errorf("gridcast.ReadDataset: %v", err)
		}
		if u, ok := h.GetAttribute(v, "units").(string); ok {
			a.Units = u
		}
		if err := d.Add(a); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// readVar reads all of the values of variable v as float64.
func readVar(f *cdf.File, v string) ([]float64, error) {
	n := 1
	for _, l := range f.Header.Lengths(v) {
		n *= l
	}
	r := f.Reader(v, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("gridcast: reading netCDF variable '%s': %v", v, err)
	}
	o := make([]float64, n)
	switch b := buf.(type) {
	case []float64:
		copy(o, b)
	case []float32:
		for i, x := range b {
			o[i] = float64(x)
		}
	case []int32:
		for i, x := range b {
			o[i] = float64(x)
		}
	case []int16:
		for i, x := range b {
			o[i] = float64(x)
		}
	case []uint8:
		for i, x := range b {
			o[i] = float64(x)
		}
	default:
		return nil, fmt.Errorf("gridcast: netCDF variable '%s' has unsupported type %T", v, buf)
	}
	return o, nil
}

// Write writes d to netCDF file w. Each dimension is written with a
// coordinate variable of the same name.
func (d *Dataset) Write(w *os.File) error {
	dims := d.Dims()
	lengths := make([]int, len(dims))
	for i, dim := range dims {
		c, _ := d.Coord(dim)
		if len(c) == 0 {
			return fmt.Errorf("gridcast: can't write zero-length dimension '%s' to netCDF", dim)
		}
		lengths[i] = len(c)
	}
	names := d.Names()
	for _, name := range names {
		for _, dim := range dims {
			if name == dim {
				return fmt.Errorf("gridcast: variable '%s' has the same name as a dimension", name)
			}
		}
	}

	h := cdf.NewHeader(dims, lengths)
	h.AddAttribute("", "comment", "gridcast dataset")
	h.AddAttribute("", "gridcast_version", Version)
	for _, dim := range dims {
		h.AddVariable(dim, []string{dim}, []float64{0})
	}
	for _, name := range names {
		v := d.Vars[name]
		h.AddVariable(name, v.Dims, []float64{0})
		if v.Units != "" {
			h.AddAttribute(name, "units", v.Units)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	for _, dim := range dims {
		c, _ := d.Coord(dim)
		if err := writeVar(f, dim, c); err != nil {
			return err
		}
	}
	for _, name := range names {
		if err := writeVar(f, name, d.Vars[name].Elements); err != nil {
			return err
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeVar(f *cdf.File, v string, data []float64) error {
	w := f.Writer(v, nil, nil)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("gridcast: writing variable %s to netCDF file: %v", v, err)
	}
	return nil
}
