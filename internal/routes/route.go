package routes

import (
	"fmt"
	"math"

	"github.com/golang/geo/r2"
)

// Route is a user-drawn polyline: an ordered sequence of 2D points with a
// stable integer ID assigned in creation order. Routes are mutable while
// being edited; the pipeline only ever sees copies taken via Store.Snapshot.
type Route struct {
	ID     int
	Points []r2.Point
}

// Start returns the first point of the route. Zero value for empty routes.
func (r Route) Start() r2.Point {
	if len(r.Points) == 0 {
		return r2.Point{}
	}
	return r.Points[0]
}

// End returns the last point of the route. Zero value for empty routes.
func (r Route) End() r2.Point {
	if len(r.Points) == 0 {
		return r2.Point{}
	}
	return r.Points[len(r.Points)-1]
}

// Length returns the total arc length: the sum of Euclidean distances
// between consecutive points. Routes with fewer than two points have
// length zero.
func (r Route) Length() float64 {
	if len(r.Points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(r.Points); i++ {
		total += r.Points[i].Sub(r.Points[i-1]).Norm()
	}
	return total
}

// EuclideanDistance returns the straight-line distance from start to end.
func (r Route) EuclideanDistance() float64 {
	if len(r.Points) < 2 {
		return 0
	}
	return r.End().Sub(r.Start()).Norm()
}

// PointAtLength returns the point at the given cumulative arc length along
// the route, walking the segments and linearly interpolating within the
// segment that straddles the target. Targets at or below zero return the
// start point; targets beyond the total length return the end point. A
// zero-length segment degenerates to its first point, so a fully
// degenerate route (coincident endpoints) answers every fractional-length
// query with the start point.
func (r Route) PointAtLength(target float64) r2.Point {
	if len(r.Points) == 0 {
		return r2.Point{}
	}
	if len(r.Points) < 2 || target <= 0 {
		return r.Points[0]
	}

	var walked float64
	for i := 1; i < len(r.Points); i++ {
		a, b := r.Points[i-1], r.Points[i]
		segment := b.Sub(a).Norm()

		if walked+segment >= target {
			if segment == 0 {
				return a
			}
			ratio := (target - walked) / segment
			return r2.Point{
				X: a.X + ratio*(b.X-a.X),
				Y: a.Y + ratio*(b.Y-a.Y),
			}
		}
		walked += segment
	}

	return r.Points[len(r.Points)-1]
}

// MiddlePoint returns the point at 50% of cumulative arc length.
func (r Route) MiddlePoint() r2.Point {
	return r.PointAtLength(r.Length() / 2)
}

// ThirdPoints returns the points at 1/3 and 2/3 of cumulative arc length.
func (r Route) ThirdPoints() (r2.Point, r2.Point) {
	total := r.Length()
	return r.PointAtLength(total / 3), r.PointAtLength(2 * total / 3)
}

// Summary returns a one-line display string for route lists:
// "Route 3: (0,0) → (10,4) | Len: 12.81" or a single-point marker.
func (r Route) Summary() string {
	switch {
	case len(r.Points) >= 2:
		s, e := r.Start(), r.End()
		return fmt.Sprintf("Route %d: (%s,%s) → (%s,%s) | Len: %.2f",
			r.ID, trimFloat(s.X), trimFloat(s.Y), trimFloat(e.X), trimFloat(e.Y), r.Length())
	case len(r.Points) == 1:
		s := r.Start()
		return fmt.Sprintf("Route %d: (%s,%s) (single point)", r.ID, trimFloat(s.X), trimFloat(s.Y))
	default:
		return fmt.Sprintf("Route %d: (empty)", r.ID)
	}
}

// clone returns a deep copy so snapshots are immune to later edits.
func (r Route) clone() Route {
	pts := make([]r2.Point, len(r.Points))
	copy(pts, r.Points)
	return Route{ID: r.ID, Points: pts}
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%g", v)
}
