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
	"strings"
)

// DimensionNotFoundError is returned when a requested dimension
// does not exist on an array or dataset.
type DimensionNotFoundError struct {
	// Dim is the requested dimension.
	Dim string

	// Dims are the dimensions that were available.
	Dims []string
}

func (e *DimensionNotFoundError) Error() string {
	return fmt.Sprintf("gridcast: dimension '%s' not found; available dimensions are [%s]",
		e.Dim, strings.Join(e.Dims, ", "))
}

// ReassemblyError is returned when partial results cannot be joined
// back together, for example because they disagree on the
// coordinates of a dimension that was not partitioned.
type ReassemblyError struct {
	// Dim is the dimension results were being joined along.
	Dim    string
	Reason string
}

func (e *ReassemblyError) Error() string {
	return fmt.Sprintf("gridcast: reassembling along '%s': %s", e.Dim, e.Reason)
}

func reassemblyErrorf(dim, format string, a ...interface{}) error {
	return &ReassemblyError{Dim: dim, Reason: fmt.Sprintf(format, a...)}
}
