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

// Package hillshade computes shaded relief from elevation arrays.
package hillshade

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridcast"
)

// Default illumination angles, in degrees.
const (
	DefaultAzimuth  = 225
	DefaultAltitude = 25
)

// DefaultVariable is the name of the elevation variable used when
// none is specified.
const DefaultVariable = "topography__elevation"

// Options specify the light source used for shading. Options
// implements gridcast.Transform.
type Options struct {
	// Azimuth is the compass direction of the light source, in degrees.
	Azimuth float64

	// Altitude is the angle of the light source above the horizon,
	// in degrees.
	Altitude float64
}

// DefaultOptions returns the default light source.
func DefaultOptions() Options {
	return Options{Azimuth: DefaultAzimuth, Altitude: DefaultAltitude}
}

// Apply calculates the hillshade of elevation array a over its last two
// dimensions, which are treated as (y, x) and must each have at least
// two elements. Shading is computed separately for every position
// along any leading dimensions. The result has the same dimensions
// and coordinates as a, is named "hillshade", and has values between
// 0 and 1.
func (o Options) Apply(a *gridcast.Array) (*gridcast.Array, error) {
	nd := len(a.Dims)
	if nd < 2 {
		return nil, fmt.Errorf("hillshade: array '%s' has %d dimensions; at least 2 are required", a.Name, nd)
	}
	ny, nx := a.Shape[nd-2], a.Shape[nd-1]
	if ny < 2 || nx < 2 {
		return nil, fmt.Errorf("hillshade: array '%s' is %d by %d; each of the last two dimensions "+
			"must have at least 2 elements", a.Name, ny, nx)
	}

	az := (360 - o.Azimuth) * math.Pi / 180
	alt := o.Altitude * math.Pi / 180
	sinAlt, cosAlt := math.Sin(alt), math.Cos(alt)

	out := sparse.ZerosDense(append([]int(nil), a.Shape...)...)
	plane := ny * nx
	for p := 0; p < len(a.Elements)/plane; p++ {
		z := a.Elements[p*plane : (p+1)*plane]
		shade := out.Elements[p*plane : (p+1)*plane]
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				dy := gradient(z, i, nx, ny, j)
				dx := gradient(z, j*nx, 1, nx, i)
				slope := math.Pi/2 - math.Atan(math.Sqrt(dy*dy+dx*dx))
				aspect := math.Atan2(-dy, dx)
				shaded := sinAlt*math.Sin(slope) + cosAlt*math.Cos(slope)*math.Cos(az-math.Pi/2-aspect)
				shade[j*nx+i] = (shaded + 1) / 2
			}
		}
	}
	return gridcast.FromDense("hillshade", append([]string(nil), a.Dims...), gridcast.CopyCoords(a.Coords), out)
}

// gradient returns the unit-spacing derivative at position k of the
// line of n values in z that starts at start with elements stride
// apart. Central differences are used in the interior and one-sided
// differences at the edges.
func gradient(z []float64, start, stride, n, k int) float64 {
	at := func(k int) float64 { return z[start+k*stride] }
	switch k {
	case 0:
		return at(1) - at(0)
	case n - 1:
		return at(n-1) - at(n-2)
	default:
		return (at(k+1) - at(k-1)) / 2
	}
}

// Dataset calculates the hillshade of variable elevVar in ds, which
// defaults to DefaultVariable. If groupBy is not empty, the shading is
// calculated separately for each group of positions along groupBy,
// using up to workers groups at once.
func Dataset(ds *gridcast.Dataset, elevVar, groupBy string, o Options, workers int) (*gridcast.Array, error) {
	if elevVar == "" {
		elevVar = DefaultVariable
	}
	elev, err := ds.Var(elevVar)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"variable": elevVar,
		"groupby":  groupBy,
		"azimuth":  o.Azimuth,
		"altitude": o.Altitude,
	}).Debug("hillshade: shading")
	b := &gridcast.Broadcaster{TimeDim: groupBy, Workers: workers}
	return b.Broadcast(o, elev)
}
