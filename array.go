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
	"math"

	"github.com/ctessum/sparse"
)

// Array is an n-dimensional array where each axis has a name and
// an ordered set of coordinate labels. The values are stored in
// row-major order in the embedded dense array.
type Array struct {
	// Name is the variable name of the array.
	Name string

	// Units are the units of the array values, if known.
	Units string

	// Dims are the dimension names, one per axis. Dimension
	// names are unique within an array.
	Dims []string

	// Coords holds the coordinate labels for each dimension,
	// in the same order as Dims.
	Coords [][]float64

	*sparse.DenseArray
}

// NewArray creates a new array with the given dimensions and coordinates.
// The shape of the array is determined by the lengths of the coordinates,
// and values, which must be in row-major order, are copied into it.
// If values is nil the array is filled with zeros.
func NewArray(name string, dims []string, coords [][]float64, values []float64) (*Array, error) {
	if len(coords) != len(dims) {
		return nil, fmt.Errorf("gridcast: array '%s' has %d dimensions but %d coordinate sets",
			name, len(dims), len(coords))
	}
	shape := make([]int, len(coords))
	for i, c := range coords {
		shape[i] = len(c)
	}
	data := sparse.ZerosDense(shape...)
	if values != nil {
		if len(values) != len(data.Elements) {
			return nil, fmt.Errorf("gridcast: array '%s' has shape %v (%d elements) but %d values were given",
				name, shape, len(data.Elements), len(values))
		}
		copy(data.Elements, values)
	}
	return FromDense(name, dims, coords, data)
}

// FromDense creates a new array that wraps data, which is not copied.
func FromDense(name string, dims []string, coords [][]float64, data *sparse.DenseArray) (*Array, error) {
	if data == nil {
		return nil, fmt.Errorf("gridcast: array '%s' has no data", name)
	}
	if len(dims) != len(data.Shape) {
		return nil, fmt.Errorf("gridcast: array '%s' has %d dimension names but data has %d dimensions",
			name, len(dims), len(data.Shape))
	}
	if len(coords) != len(dims) {
		return nil, fmt.Errorf("gridcast: array '%s' has %d dimensions but %d coordinate sets",
			name, len(dims), len(coords))
	}
	seen := make(map[string]struct{}, len(dims))
	for i, d := range dims {
		if _, ok := seen[d]; ok {
			return nil, fmt.Errorf("gridcast: array '%s' has duplicate dimension '%s'", name, d)
		}
		seen[d] = struct{}{}
		if len(coords[i]) != data.Shape[i] {
			return nil, fmt.Errorf("gridcast: array '%s' dimension '%s' has length %d but %d coordinates",
				name, d, data.Shape[i], len(coords[i]))
		}
	}
	return &Array{
		Name:       name,
		Dims:       dims,
		Coords:     coords,
		DenseArray: data,
	}, nil
}

// Axis returns the position of dimension dim in the array.
func (a *Array) Axis(dim string) (int, error) {
	for i, d := range a.Dims {
		if d == dim {
			return i, nil
		}
	}
	return -1, &DimensionNotFoundError{Dim: dim, Dims: append([]string(nil), a.Dims...)}
}

// HasDim returns whether the array has dimension dim.
func (a *Array) HasDim(dim string) bool {
	_, err := a.Axis(dim)
	return err == nil
}

// Len returns the length of the array along dimension dim.
func (a *Array) Len(dim string) (int, error) {
	axis, err := a.Axis(dim)
	if err != nil {
		return 0, err
	}
	return a.Shape[axis], nil
}

// Coord returns a copy of the coordinate labels of dimension dim.
func (a *Array) Coord(dim string) ([]float64, error) {
	axis, err := a.Axis(dim)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), a.Coords[axis]...), nil
}

// Values returns a copy of the array values in row-major order.
func (a *Array) Values() []float64 {
	return append([]float64(nil), a.Elements...)
}

// Copy returns a deep copy of the array.
func (a *Array) Copy() *Array {
	return &Array{
		Name:       a.Name,
		Units:      a.Units,
		Dims:       append([]string(nil), a.Dims...),
		Coords:     CopyCoords(a.Coords),
		DenseArray: copyDense(a.DenseArray),
	}
}

// blocks returns the number of contiguous blocks before axis, the
// length of axis, and the number of elements in each step along axis.
func (a *Array) blocks(axis int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i := 0; i < axis; i++ {
		outer *= a.Shape[i]
	}
	for i := axis + 1; i < len(a.Shape); i++ {
		inner *= a.Shape[i]
	}
	return outer, a.Shape[axis], inner
}

// Take returns a new array holding the given positions along dimension
// dim, in the order given. The dimension is kept even if only one
// position is selected.
func (a *Array) Take(dim string, indices []int) (*Array, error) {
	axis, err := a.Axis(dim)
	if err != nil {
		return nil, err
	}
	outer, n, inner := a.blocks(axis)
	labels := make([]float64, len(indices))
	for k, i := range indices {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("gridcast: index %d out of range for dimension '%s' with length %d", i, dim, n)
		}
		labels[k] = a.Coords[axis][i]
	}
	shape := append([]int(nil), a.Shape...)
	shape[axis] = len(indices)
	out := sparse.ZerosDense(shape...)
	for o := 0; o < outer; o++ {
		for k, i := range indices {
			src := (o*n + i) * inner
			dst := (o*len(indices) + k) * inner
			copy(out.Elements[dst:dst+inner], a.Elements[src:src+inner])
		}
	}
	coords := CopyCoords(a.Coords)
	coords[axis] = labels
	return &Array{
		Name:       a.Name,
		Units:      a.Units,
		Dims:       append([]string(nil), a.Dims...),
		Coords:     coords,
		DenseArray: out,
	}, nil
}

// Isel returns the positions [start, end) along dimension dim.
func (a *Array) Isel(dim string, start, end int) (*Array, error) {
	n, err := a.Len(dim)
	if err != nil {
		return nil, err
	}
	if start < 0 || end > n || start > end {
		return nil, fmt.Errorf("gridcast: invalid range [%d, %d) for dimension '%s' with length %d",
			start, end, dim, n)
	}
	indices := make([]int, end-start)
	for i := range indices {
		indices[i] = start + i
	}
	return a.Take(dim, indices)
}

// ExpandDims returns a copy of the array with a new length-one dimension
// dim inserted at position axis. An axis past the last dimension
// appends the new dimension.
func (a *Array) ExpandDims(dim string, label float64, axis int) (*Array, error) {
	if a.HasDim(dim) {
		return nil, fmt.Errorf("gridcast: array '%s' already has dimension '%s'", a.Name, dim)
	}
	if axis < 0 {
		axis = 0
	}
	if axis > len(a.Dims) {
		axis = len(a.Dims)
	}
	o := a.Copy()
	o.Dims = append(o.Dims[:axis], append([]string{dim}, o.Dims[axis:]...)...)
	o.Coords = append(o.Coords[:axis], append([][]float64{{label}}, o.Coords[axis:]...)...)
	shape := append([]int(nil), a.Shape[:axis]...)
	shape = append(shape, 1)
	shape = append(shape, a.Shape[axis:]...)
	data := sparse.ZerosDense(shape...)
	copy(data.Elements, a.Elements)
	o.DenseArray = data
	return o, nil
}

// Squeeze returns a copy of the array with the length-one dimension
// dim removed.
func (a *Array) Squeeze(dim string) (*Array, error) {
	axis, err := a.Axis(dim)
	if err != nil {
		return nil, err
	}
	if a.Shape[axis] != 1 {
		return nil, fmt.Errorf("gridcast: can't squeeze dimension '%s' with length %d", dim, a.Shape[axis])
	}
	o := a.Copy()
	o.Dims = append(o.Dims[:axis], o.Dims[axis+1:]...)
	o.Coords = append(o.Coords[:axis], o.Coords[axis+1:]...)
	shape := append([]int(nil), a.Shape[:axis]...)
	shape = append(shape, a.Shape[axis+1:]...)
	data := sparse.ZerosDense(shape...)
	copy(data.Elements, a.Elements)
	o.DenseArray = data
	return o, nil
}

// Equal returns whether a and b have the same dimensions, coordinates
// and values. Names and units are not compared, and NaN values
// are considered equal to each other.
func (a *Array) Equal(b *Array) bool {
	if len(a.Dims) != len(b.Dims) || len(a.Elements) != len(b.Elements) {
		return false
	}
	for i, d := range a.Dims {
		if b.Dims[i] != d || !equalFloats(a.Coords[i], b.Coords[i]) {
			return false
		}
	}
	return equalFloats(a.Elements, b.Elements)
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] && !(math.IsNaN(v) && math.IsNaN(b[i])) {
			return false
		}
	}
	return true
}

// CopyCoords returns a deep copy of the coordinate sets c.
func CopyCoords(c [][]float64) [][]float64 {
	o := make([][]float64, len(c))
	for i, v := range c {
		o[i] = append([]float64(nil), v...)
	}
	return o
}

func copyDense(d *sparse.DenseArray) *sparse.DenseArray {
	o := sparse.ZerosDense(append([]int(nil), d.Shape...)...)
	copy(o.Elements, d.Elements)
	return o
}
