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

package hillshade

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"github.com/spatialmodel/gridcast"
	"gonum.org/v1/gonum/floats"
)

// different returns whether a and b differ by more than tolerance tol.
func different(a, b, tol float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tol || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func surface(t *testing.T, f func(y, x float64) float64) *gridcast.Array {
	t.Helper()
	ys, xs := []float64{0, 1, 2}, []float64{0, 1, 2, 3}
	var vals []float64
	for _, y := range ys {
		for _, x := range xs {
			vals = append(vals, f(y, x))
		}
	}
	a, err := gridcast.NewArray(DefaultVariable, []string{"y", "x"}, [][]float64{ys, xs}, vals)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestFlat(t *testing.T) {
	a := surface(t, func(y, x float64) float64 { return 5 })
	h, err := DefaultOptions().Apply(a)
	if err != nil {
		t.Fatal(err)
	}
	want := (math.Sin(DefaultAltitude*math.Pi/180) + 1) / 2
	for i, v := range h.Elements {
		if different(v, want, 1e-10) {
			t.Errorf("%d: have %g, want %g", i, v, want)
		}
	}
	if h.Name != "hillshade" {
		t.Errorf("name %s", h.Name)
	}
	if !reflect.DeepEqual(h.Dims, a.Dims) || !reflect.DeepEqual(h.Coords, a.Coords) {
		t.Errorf("dims %v coords %v", h.Dims, h.Coords)
	}
}

func TestRamp(t *testing.T) {
	a := surface(t, func(y, x float64) float64 { return x })
	h, err := DefaultOptions().Apply(a)
	if err != nil {
		t.Fatal(err)
	}
	alt := DefaultAltitude * math.Pi / 180
	az := (360 - DefaultAzimuth) * math.Pi / 180
	slope := math.Pi / 4
	want := (math.Sin(alt)*math.Sin(slope) + math.Cos(alt)*math.Cos(slope)*math.Cos(az-math.Pi/2) + 1) / 2
	for i, v := range h.Elements {
		if different(v, want, 1e-10) {
			t.Errorf("%d: have %g, want %g", i, v, want)
		}
	}
}

func TestRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	a := surface(t, func(y, x float64) float64 { return r.Float64() * 100 })
	for _, o := range []Options{DefaultOptions(), {Azimuth: 0, Altitude: 90}, {Azimuth: 315, Altitude: 45}} {
		h, err := o.Apply(a)
		if err != nil {
			t.Fatal(err)
		}
		if lo, hi := floats.Min(h.Elements), floats.Max(h.Elements); lo < 0 || hi > 1 {
			t.Errorf("%+v: values range from %g to %g", o, lo, hi)
		}
	}
}

func TestInvalid(t *testing.T) {
	a, _ := gridcast.NewArray("z", []string{"x"}, [][]float64{{0, 1, 2}}, nil)
	if _, err := DefaultOptions().Apply(a); err == nil {
		t.Error("expected error for one-dimensional array")
	}
	b, _ := gridcast.NewArray("z", []string{"y", "x"}, [][]float64{{0}, {0, 1, 2}}, nil)
	if _, err := DefaultOptions().Apply(b); err == nil {
		t.Error("expected error for single row")
	}
}

func TestDatasetGroupBy(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	vals := make([]float64, 3*3*4)
	for i := range vals {
		vals[i] = r.Float64() * 10
	}
	elev, err := gridcast.NewArray(DefaultVariable, []string{"time", "y", "x"},
		[][]float64{{0, 1, 2}, {0, 1, 2}, {0, 1, 2, 3}}, vals)
	if err != nil {
		t.Fatal(err)
	}
	ds, err := gridcast.NewDataset(elev)
	if err != nil {
		t.Fatal(err)
	}
	want, err := DefaultOptions().Apply(elev)
	if err != nil {
		t.Fatal(err)
	}
	for _, groupBy := range []string{"", "time"} {
		have, err := Dataset(ds, "", groupBy, DefaultOptions(), 2)
		if err != nil {
			t.Fatal(err)
		}
		if !have.Equal(want) {
			t.Errorf("groupby %q: have %v, want %v", groupBy, have.Elements, want.Elements)
		}
	}
	if _, err := Dataset(ds, "missing", "", DefaultOptions(), 1); err == nil {
		t.Error("expected error for missing variable")
	}
}
