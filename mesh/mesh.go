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

// Package mesh builds structured surface grids from gridded datasets
// for three-dimensional visualization.
package mesh

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/gridcast"
	"gonum.org/v1/gonum/floats"
)

// DefaultElevation is the elevation variable used when none is specified.
const DefaultElevation = "topography__elevation"

// Options specify how a Grid is created.
type Options struct {
	// Elevation is the name of the elevation variable. If empty,
	// DefaultElevation is used.
	Elevation string

	// Vars are the names of additional variables to attach to the
	// grid points.
	Vars []string

	// Warp specifies whether the grid points are displaced vertically
	// by ScaleFactor times the elevation.
	Warp bool

	// ScaleFactor is the vertical exaggeration used when Warp is true.
	ScaleFactor float64
}

// Grid is a structured grid of points with NX columns and NY rows.
// Point i = iy*NX + ix is located at (x[ix], y[iy]).
type Grid struct {
	NX, NY int

	// Points are the horizontal point locations.
	Points geom.MultiPoint

	// Z holds the vertical location of each point.
	Z []float64

	// Names are the names of the point data arrays, in the order
	// they were added.
	Names []string

	// Data holds the point data arrays.
	Data map[string][]float64
}

// New creates a new grid from the x and y coordinates of ds and the
// variables named in o, each of which must have dimensions (y, x).
func New(ds *gridcast.Dataset, o Options) (*Grid, error) {
	x, ok := ds.Coord("x")
	if !ok {
		return nil, fmt.Errorf("mesh: dataset does not have an 'x' dimension")
	}
	y, ok := ds.Coord("y")
	if !ok {
		return nil, fmt.Errorf("mesh: dataset does not have a 'y' dimension")
	}
	g := &Grid{
		NX:     len(x),
		NY:     len(y),
		Points: make(geom.MultiPoint, 0, len(x)*len(y)),
		Z:      make([]float64, len(x)*len(y)),
		Data:   make(map[string][]float64),
	}
	for _, yy := range y {
		for _, xx := range x {
			g.Points = append(g.Points, geom.Point{X: xx, Y: yy})
		}
	}

	elev := o.Elevation
	if elev == "" {
		elev = DefaultElevation
	}
	for _, name := range append([]string{elev}, o.Vars...) {
		if err := g.add(ds, name); err != nil {
			return nil, err
		}
	}
	if o.Warp {
		z := append([]float64(nil), g.Data[elev]...)
		floats.Scale(o.ScaleFactor, z)
		floats.Add(g.Z, z)
	}
	return g, nil
}

func (g *Grid) add(ds *gridcast.Dataset, name string) error {
	if _, ok := g.Data[name]; ok {
		return nil
	}
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("mesh: variable name %q can't be written to VTK; names must be non-empty and contain no whitespace", name)
	}
	v, err := ds.Var(name)
	if err != nil {
		return fmt.Errorf("mesh: %v", err)
	}
	if len(v.Dims) != 2 || v.Dims[0] != "y" || v.Dims[1] != "x" {
		return fmt.Errorf("mesh: variable '%s' has dimensions %v; it must have dimensions [y x]", name, v.Dims)
	}
	g.Names = append(g.Names, name)
	g.Data[name] = v.Values()
	return nil
}

// Bounds returns the horizontal extent of the grid.
func (g *Grid) Bounds() *geom.Bounds {
	return g.Points.Bounds()
}

// WriteVTK writes the grid to w in the legacy ASCII VTK format.
func (g *Grid) WriteVTK(w io.Writer) error {
	b := bufio.NewWriter(w)
	n := len(g.Points)
	fmt.Fprintln(b, "# vtk DataFile Version 3.0")
	fmt.Fprintln(b, "gridcast structured grid")
	fmt.Fprintln(b, "ASCII")
	fmt.Fprintln(b, "DATASET STRUCTURED_GRID")
	fmt.Fprintf(b, "DIMENSIONS %d %d 1\n", g.NX, g.NY)
	fmt.Fprintf(b, "POINTS %d double\n", n)
	for i, p := range g.Points {
		fmt.Fprintf(b, "%g %g %g\n", p.X, p.Y, g.Z[i])
	}
	if len(g.Names) > 0 {
		fmt.Fprintf(b, "POINT_DATA %d\n", n)
	}
	for _, name := range g.Names {
		fmt.Fprintf(b, "SCALARS %s double 1\n", name)
		fmt.Fprintln(b, "LOOKUP_TABLE default")
		for _, v := range g.Data[name] {
			fmt.Fprintf(b, "%g\n", v)
		}
	}
	return b.Flush()
}
