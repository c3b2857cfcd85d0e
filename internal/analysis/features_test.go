package analysis

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/routelab/internal/routes"
)

func TestFeatureConfigWidth(t *testing.T) {
	cases := []struct {
		cfg  FeatureConfig
		want int
	}{
		{FeatureConfig{}, 5},
		{FeatureConfig{IncludeMiddle: true}, 7},
		{FeatureConfig{IncludeThirds: true}, 9},
		{FeatureConfig{IncludeEuclidean: true}, 6},
		{FeatureConfig{IncludeMiddle: true, IncludeThirds: true, IncludeEuclidean: true}, 12},
	}
	for _, c := range cases {
		if got := c.cfg.Width(); got != c.want {
			t.Errorf("%+v Width() = %d, want %d", c.cfg, got, c.want)
		}
		if names := c.cfg.Names(); len(names) != c.want {
			t.Errorf("%+v len(Names()) = %d, want %d", c.cfg, len(names), c.want)
		}
	}
}

func TestExtractFeaturesValues(t *testing.T) {
	snap := []routes.Route{
		{ID: 7, Points: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}},
	}
	cfg := FeatureConfig{IncludeMiddle: true, IncludeThirds: true, IncludeEuclidean: true}
	fm := ExtractFeatures(snap, cfg)

	if fm.Rows() != 1 {
		t.Fatalf("Rows() = %d, want 1", fm.Rows())
	}
	got := fm.Row(7)
	want := []float64{
		0, 0, 10, 0, 10, // start, end, length
		5, 0, // middle
		10.0 / 3, 0, 20.0 / 3, 0, // thirds
		10, // euclidean
	}
	if len(got) != len(want) {
		t.Fatalf("Row(7) has %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("feature %d (%s) = %v, want %v", i, cfg.Names()[i], got[i], want[i])
		}
	}
}

func TestExtractFeaturesSkipsShortRoutes(t *testing.T) {
	snap := []routes.Route{
		{ID: 1, Points: []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}}},
		{ID: 2, Points: []r2.Point{{X: 5, Y: 5}}}, // single point
		{ID: 3},                                  // empty
		{ID: 4, Points: []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 2}}},
	}
	fm := ExtractFeatures(snap, FeatureConfig{})

	if diff := cmp.Diff([]int{1, 4}, fm.IDs); diff != "" {
		t.Errorf("surviving IDs mismatch (-want +got):\n%s", diff)
	}
	if fm.Row(2) != nil {
		t.Error("Row(2) should be nil for an excluded route")
	}
}

func TestExtractFeaturesDegenerateRoute(t *testing.T) {
	// Coincident endpoints: length and all derived features must be
	// finite zeros, never NaN.
	snap := []routes.Route{
		{ID: 1, Points: []r2.Point{{X: 2, Y: 3}, {X: 2, Y: 3}}},
	}
	cfg := FeatureConfig{IncludeMiddle: true, IncludeThirds: true, IncludeEuclidean: true}
	fm := ExtractFeatures(snap, cfg)

	if fm.Rows() != 1 {
		t.Fatalf("degenerate route was excluded")
	}
	for i, v := range fm.Row(1) {
		if math.IsNaN(v) {
			t.Errorf("feature %d (%s) is NaN", i, cfg.Names()[i])
		}
	}
}

func TestExtractFeaturesEmptySnapshot(t *testing.T) {
	fm := ExtractFeatures(nil, FeatureConfig{})
	if fm.Rows() != 0 {
		t.Errorf("Rows() = %d, want 0", fm.Rows())
	}
	if fm.X != nil {
		t.Error("X should be nil when no route survives")
	}
}
