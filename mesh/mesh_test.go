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

package mesh

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
	"github.com/spatialmodel/gridcast"
)

func testDataset(t *testing.T) *gridcast.Dataset {
	elev, err := gridcast.NewArray(DefaultElevation, []string{"y", "x"},
		[][]float64{{100, 200}, {0, 10, 20}}, []float64{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	erosion, err := gridcast.NewArray("erosion", []string{"y", "x"},
		[][]float64{{100, 200}, {0, 10, 20}}, []float64{0, 0, 1, 1, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	flipped, err := gridcast.NewArray("flipped", []string{"x", "y"},
		[][]float64{{0, 10, 20}, {100, 200}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := gridcast.NewDataset(elev, erosion, flipped)
	if err != nil {
		t.Fatal(err)
	}
	return ds
}

func TestNew(t *testing.T) {
	ds := testDataset(t)
	g, err := New(ds, Options{Vars: []string{"erosion"}})
	if err != nil {
		t.Fatal(err)
	}
	if g.NX != 3 || g.NY != 2 {
		t.Errorf("grid is %d by %d", g.NX, g.NY)
	}
	if p := g.Points[4]; !p.Equals(geom.Point{X: 10, Y: 200}) {
		t.Errorf("point 4 is %v", p)
	}
	if !reflect.DeepEqual(g.Z, make([]float64, 6)) {
		t.Errorf("z %v", g.Z)
	}
	if !reflect.DeepEqual(g.Names, []string{DefaultElevation, "erosion"}) {
		t.Errorf("names %v", g.Names)
	}
	want := &geom.Bounds{Min: geom.Point{X: 0, Y: 100}, Max: geom.Point{X: 20, Y: 200}}
	if b := g.Bounds(); !reflect.DeepEqual(b, want) {
		t.Errorf("bounds %v; want %v", b, want)
	}
}

func TestWarp(t *testing.T) {
	g, err := New(testDataset(t), Options{Warp: true, ScaleFactor: 2})
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{2, 4, 6, 8, 10, 12}
	if !reflect.DeepEqual(g.Z, want) {
		t.Errorf("z %v; want %v", g.Z, want)
	}
}

func TestNewErrors(t *testing.T) {
	ds := testDataset(t)
	if _, err := New(ds, Options{Vars: []string{"flipped"}}); err == nil {
		t.Error("expected error for transposed variable")
	}
	if _, err := New(ds, Options{Elevation: "missing"}); err == nil {
		t.Error("expected error for missing variable")
	}
	spaced := ds.Vars[DefaultElevation].Copy()
	spaced.Name = "bed rock"
	if err := ds.Add(spaced); err != nil {
		t.Fatal(err)
	}
	if _, err := New(ds, Options{Vars: []string{"bed rock"}}); err == nil {
		t.Error("expected error for variable name with whitespace")
	}
	a, _ := gridcast.NewArray("z", []string{"lat", "lon"}, [][]float64{{0}, {0}}, nil)
	ds2, _ := gridcast.NewDataset(a)
	if _, err := New(ds2, Options{Elevation: "z"}); err == nil {
		t.Error("expected error for missing x dimension")
	}
}

func TestWriteVTK(t *testing.T) {
	g, err := New(testDataset(t), Options{Warp: true, ScaleFactor: 1})
	if err != nil {
		t.Fatal(err)
	}
	var b bytes.Buffer
	if err := g.WriteVTK(&b); err != nil {
		t.Fatal(err)
	}
	want := `# vtk DataFile Version 3.0
gridcast structured grid
ASCII
DATASET STRUCTURED_GRID
DIMENSIONS 3 2 1
POINTS 6 double
0 100 1
10 100 2
20 100 3
0 200 4
10 200 5
20 200 6
POINT_DATA 6
SCALARS topography__elevation double 1
LOOKUP_TABLE default
1
2
3
4
5
6
`
	if have := b.String(); have != want {
		t.Errorf("have:\n%s\nwant:\n%s", have, want)
	}
}
