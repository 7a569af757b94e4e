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

// Group is a set of positions along a dimension that share the
// same coordinate label.
type Group struct {
	// Label is the coordinate label shared by the group.
	Label float64

	// Indices are the positions of the group members along the
	// dimension, in increasing order.
	Indices []int
}

// groupLabels groups the positions of labels by value, in order of first
// appearance.
func groupLabels(labels []float64) []Group {
	var groups []Group
	index := make(map[float64]int)
	for i, l := range labels {
		g, ok := index[l]
		if !ok {
			g = len(groups)
			index[l] = g
			groups = append(groups, Group{Label: l})
		}
		groups[g].Indices = append(groups[g].Indices, i)
	}
	return groups
}

// GroupBy groups the positions along dimension dim by distinct
// coordinate label, in order of first appearance.
func (a *Array) GroupBy(dim string) ([]Group, error) {
	axis, err := a.Axis(dim)
	if err != nil {
		return nil, err
	}
	return groupLabels(a.Coords[axis]), nil
}

// combineGroups reassembles per-group results along dim into the
// original coordinate order of src. Results either all keep dim,
// with the same length along it as their group, or all drop it, in
// which case dim is re-attached with the group label at its axis in src.
func combineGroups(src *Array, dim string, groups []Group, results []*Array) (*Array, error) {
	axis, err := src.Axis(dim)
	if err != nil {
		return nil, err
	}
	kept := 0
	for _, r := range results {
		if r.HasDim(dim) {
			kept++
		}
	}
	switch kept {
	case 0:
		parts := make([]*Array, len(results))
		for i, r := range results {
			if parts[i], err = r.ExpandDims(dim, groups[i].Label, axis); err != nil {
				return nil, err
			}
		}
		return Concat(dim, parts...)
	case len(results):
	default:
		return nil, reassemblyErrorf(dim, "%d of %d group results dropped the dimension", len(results)-kept, len(results))
	}

	var order []int
	for i, r := range results {
		n, _ := r.Len(dim)
		if n != len(groups[i].Indices) {
			return nil, reassemblyErrorf(dim, "group %d (label %g) has %d elements but its result has %d",
				i, groups[i].Label, len(groups[i].Indices), n)
		}
		order = append(order, groups[i].Indices...)
	}
	joined, err := Concat(dim, results...)
	if err != nil {
		return nil, err
	}

	// Position k of joined belongs at order[k] in the output.
	inverse := make([]int, len(order))
	identity := true
	for k, i := range order {
		inverse[i] = k
		if i != k {
			identity = false
		}
	}
	out := joined
	if !identity {
		if out, err = joined.Take(dim, inverse); err != nil {
			return nil, err
		}
	}
	jaxis, _ := out.Axis(dim)
	out.Coords[jaxis] = append([]float64(nil), src.Coords[axis]...)
	return out, nil
}
