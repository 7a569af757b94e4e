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
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Transform is a function of one labeled array. Transform options
// are fields of the implementing type, so the same options are used
// for every array the transform is applied to.
type Transform interface {
	Apply(*Array) (*Array, error)
}

// TransformFunc adapts an ordinary function to the Transform interface.
type TransformFunc func(*Array) (*Array, error)

// Apply calls f(a).
func (f TransformFunc) Apply(a *Array) (*Array, error) { return f(a) }

// Routing specifies which array each batch partition is recursed on.
type Routing int

const (
	// SliceRouting recurses on each batch slice of the array.
	SliceRouting Routing = iota

	// WholeArrayRouting recurses on the whole input array once per
	// batch position, so every batch element sees the full array
	// and the result repeats the full batch axis once per position.
	WholeArrayRouting
)

// Broadcaster applies a Transform to a labeled array, optionally
// independently across a batch dimension and/or grouped along a
// time dimension, and reassembles the results into one array.
type Broadcaster struct {
	// BatchDim is the outer dimension to partition on. Each batch
	// slice is processed independently, including partitioning
	// along TimeDim. Empty means no batch partitioning.
	BatchDim string

	// TimeDim is the inner dimension to partition on. The transform
	// is applied to each group of positions sharing a coordinate
	// label. Empty means no time partitioning.
	TimeDim string

	// Workers is the maximum number of partitions processed at
	// once at each partitioning level. Values below 2 process
	// partitions one at a time, in order.
	Workers int

	// Routing specifies how batch partitions are recursed on.
	Routing Routing

	// Log receives debugging information. If nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

// Broadcast applies f to a, partitioning along batchDim and timeDim
// when they are not empty. It is shorthand for a sequential
// Broadcaster with the given dimensions.
func Broadcast(f Transform, a *Array, batchDim, timeDim string) (*Array, error) {
	b := &Broadcaster{BatchDim: batchDim, TimeDim: timeDim}
	return b.Broadcast(f, a)
}

// Broadcast applies f to a. Dimensions named by b must exist on a,
// otherwise a *DimensionNotFoundError is returned before f is called.
// An error returned by f is returned unchanged, and no result is
// returned if any partition fails. A partitioning dimension with no
// coordinates yields a copy of a without calling f.
func (b *Broadcaster) Broadcast(f Transform, a *Array) (*Array, error) {
	for _, dim := range []string{b.BatchDim, b.TimeDim} {
		if dim == "" {
			continue
		}
		if _, err := a.Axis(dim); err != nil {
			return nil, err
		}
	}
	return b.broadcast(f, a, b.BatchDim, b.TimeDim)
}

func (b *Broadcaster) broadcast(f Transform, a *Array, batchDim, timeDim string) (*Array, error) {
	switch {
	case batchDim != "":
		n, err := a.Len(batchDim)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return a.Copy(), nil
		}
		results := make([]*Array, n)
		err = b.each(n, func(i int) error {
			src := a
			if b.Routing == SliceRouting {
				var err error
				if src, err = a.Isel(batchDim, i, i+1); err != nil {
					return err
				}
			}
			b.log().WithFields(logrus.Fields{
				"dim":       batchDim,
				"partition": i,
				"of":        n,
			}).Debug("gridcast: broadcasting batch partition")
			r, err := b.broadcast(f, src, "", timeDim)
			if err != nil {
				return err
			}
			if r == nil {
				return reassemblyErrorf(batchDim, "partition %d result is nil", i)
			}
			results[i] = r
			return nil
		})
		if err != nil {
			return nil, err
		}
		return Concat(batchDim, results...)

	case timeDim != "":
		groups, err := a.GroupBy(timeDim)
		if err != nil {
			return nil, err
		}
		if len(groups) == 0 {
			return a.Copy(), nil
		}
		results := make([]*Array, len(groups))
		err = b.each(len(groups), func(i int) error {
			part, err := a.Take(timeDim, groups[i].Indices)
			if err != nil {
				return err
			}
			b.log().WithFields(logrus.Fields{
				"dim":       timeDim,
				"partition": i,
				"label":     groups[i].Label,
			}).Debug("gridcast: applying transform to group")
			r, err := f.Apply(part)
			if err != nil {
				return err
			}
			if r == nil {
				return reassemblyErrorf(timeDim, "group %d (label %g) result is nil", i, groups[i].Label)
			}
			results[i] = r
			return nil
		})
		if err != nil {
			return nil, err
		}
		return combineGroups(a, timeDim, groups, results)

	default:
		return f.Apply(a)
	}
}

// each runs fn for partitions 0 through n-1 using up to b.Workers
// goroutines.
func (b *Broadcaster) each(n int, fn func(i int) error) error {
	return Each(b.Workers, n, fn)
}

// Each runs fn for i = 0 through n-1. If workers is less than 2 the
// calls are made in order in the calling goroutine; otherwise up to
// workers calls run at once. Once a call fails no further calls are
// started, and the first error is returned.
func Each(workers, n int, fn func(i int) error) error {
	if workers < 2 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			return fn(i)
		})
	}
	return g.Wait()
}

func (b *Broadcaster) log() logrus.FieldLogger {
	if b.Log == nil {
		return logrus.StandardLogger()
	}
	return b.Log
}
