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
	"strings"

	"github.com/ctessum/sparse"
)

// Concat joins arrays along their existing dimension dim. All of
// the arrays must have the same dimensions in the same order and the
// same coordinates along every dimension other than dim; otherwise
// a *ReassemblyError is returned. The name and units of the result
// are taken from the first array.
func Concat(dim string, arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, reassemblyErrorf(dim, "no arrays to concatenate")
	}
	first := arrays[0]
	axis, err := first.Axis(dim)
	if err != nil {
		return nil, reassemblyErrorf(dim, "array 0 does not have the dimension; it has [%s]",
			strings.Join(first.Dims, ", "))
	}
	total := 0
	for i, a := range arrays {
		if len(a.Dims) != len(first.Dims) {
			return nil, reassemblyErrorf(dim, "array %d has dimensions [%s] but array 0 has [%s]",
				i, strings.Join(a.Dims, ", "), strings.Join(first.Dims, ", "))
		}
		for j, d := range a.Dims {
			if d != first.Dims[j] {
				return nil, reassemblyErrorf(dim, "array %d has dimensions [%s] but array 0 has [%s]",
					i, strings.Join(a.Dims, ", "), strings.Join(first.Dims, ", "))
			}
			if j == axis {
				continue
			}
			if !equalFloats(a.Coords[j], first.Coords[j]) {
				return nil, reassemblyErrorf(dim, "array %d has different coordinates along '%s'", i, d)
			}
		}
		total += a.Shape[axis]
	}

	outer, _, inner := first.blocks(axis)
	shape := append([]int(nil), first.Shape...)
	shape[axis] = total
	data := sparse.ZerosDense(shape...)
	labels := make([]float64, 0, total)
	for _, a := range arrays {
		labels = append(labels, a.Coords[axis]...)
	}
	dst := 0
	for o := 0; o < outer; o++ {
		for _, a := range arrays {
			n := a.Shape[axis] * inner
			copy(data.Elements[dst:dst+n], a.Elements[o*n:(o+1)*n])
			dst += n
		}
	}

	coords := CopyCoords(first.Coords)
	coords[axis] = labels
	return &Array{
		Name:       first.Name,
		Units:      first.Units,
		Dims:       append([]string(nil), first.Dims...),
		Coords:     coords,
		DenseArray: data,
	}, nil
}
