package routes

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRouteLength(t *testing.T) {
	rt := Route{ID: 1, Points: []r2.Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}}}
	if got := rt.Length(); !almostEqual(got, 11) {
		t.Errorf("Length() = %v, want 11", got)
	}

	single := Route{ID: 2, Points: []r2.Point{{X: 5, Y: 5}}}
	if got := single.Length(); got != 0 {
		t.Errorf("single-point Length() = %v, want 0", got)
	}
}

func TestRouteEuclideanDistance(t *testing.T) {
	rt := Route{ID: 1, Points: []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 7}, {X: 3, Y: 4}}}
	if got := rt.EuclideanDistance(); !almostEqual(got, 5) {
		t.Errorf("EuclideanDistance() = %v, want 5", got)
	}
}

func TestPointAtLengthInterpolates(t *testing.T) {
	rt := Route{ID: 1, Points: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}

	cases := []struct {
		target float64
		want   r2.Point
	}{
		{-1, r2.Point{X: 0, Y: 0}},
		{0, r2.Point{X: 0, Y: 0}},
		{2.5, r2.Point{X: 2.5, Y: 0}},
		{10, r2.Point{X: 10, Y: 0}},
		{99, r2.Point{X: 10, Y: 0}},
	}
	for _, c := range cases {
		got := rt.PointAtLength(c.target)
		if !almostEqual(got.X, c.want.X) || !almostEqual(got.Y, c.want.Y) {
			t.Errorf("PointAtLength(%v) = %v, want %v", c.target, got, c.want)
		}
	}
}

func TestPointAtLengthDegenerateRoute(t *testing.T) {
	// All points coincide: total length is zero and every fractional
	// query must answer with the start point, not NaN.
	rt := Route{ID: 1, Points: []r2.Point{{X: 2, Y: 3}, {X: 2, Y: 3}, {X: 2, Y: 3}}}

	mid := rt.MiddlePoint()
	if mid.X != 2 || mid.Y != 3 {
		t.Errorf("MiddlePoint() = %v, want (2,3)", mid)
	}
	p1, p2 := rt.ThirdPoints()
	for _, p := range []r2.Point{p1, p2} {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Fatalf("third point is NaN: %v", p)
		}
		if p.X != 2 || p.Y != 3 {
			t.Errorf("third point = %v, want (2,3)", p)
		}
	}
}

func TestThirdPoints(t *testing.T) {
	rt := Route{ID: 1, Points: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}}
	p1, p2 := rt.ThirdPoints()
	if !almostEqual(p1.X, 10.0/3) || !almostEqual(p1.Y, 0) {
		t.Errorf("first third = %v, want (%v,0)", p1, 10.0/3)
	}
	if !almostEqual(p2.X, 20.0/3) || !almostEqual(p2.Y, 0) {
		t.Errorf("second third = %v, want (%v,0)", p2, 20.0/3)
	}
}

func TestRouteSummary(t *testing.T) {
	rt := Route{ID: 3, Points: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 4}}}
	want := "Route 3: (0,0) → (10,4) | Len: 10.77"
	if got := rt.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	single := Route{ID: 4, Points: []r2.Point{{X: 1.5, Y: 2}}}
	if got := single.Summary(); got != "Route 4: (1.5,2) (single point)" {
		t.Errorf("single-point Summary() = %q", got)
	}
}
