package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/routelab/internal/monitoring"
	"github.com/banshee-data/routelab/internal/routes"
)

// baseFeatureCount is the fixed head of every feature vector:
// start_x, start_y, end_x, end_y, length.
const baseFeatureCount = 5

// FeatureConfig selects the optional features appended to the base
// schema. It is a comparable value and participates directly in cache
// keys.
type FeatureConfig struct {
	IncludeMiddle    bool // middle_x, middle_y at 50% arc length (+2)
	IncludeThirds    bool // third1_x/y, third2_x/y at 1/3 and 2/3 arc length (+4)
	IncludeEuclidean bool // straight-line start→end distance (+1)
}

// Width returns the feature-vector length implied by the configuration.
func (c FeatureConfig) Width() int {
	w := baseFeatureCount
	if c.IncludeMiddle {
		w += 2
	}
	if c.IncludeThirds {
		w += 4
	}
	if c.IncludeEuclidean {
		w += 1
	}
	return w
}

// Names returns the column names in schema order.
func (c FeatureConfig) Names() []string {
	names := []string{"start_x", "start_y", "end_x", "end_y", "length"}
	if c.IncludeMiddle {
		names = append(names, "middle_x", "middle_y")
	}
	if c.IncludeThirds {
		names = append(names, "third1_x", "third1_y", "third2_x", "third2_y")
	}
	if c.IncludeEuclidean {
		names = append(names, "euclidean_dist")
	}
	return names
}

// FeatureMatrix is the extraction output: one row per surviving route,
// with IDs listing the retained route IDs in matching row order.
type FeatureMatrix struct {
	X      *mat.Dense // nil when no route survived
	IDs    []int
	Config FeatureConfig
}

// Rows returns the number of surviving routes.
func (m *FeatureMatrix) Rows() int {
	return len(m.IDs)
}

// Row returns the feature vector of the given route, or nil if the route
// did not survive extraction.
func (m *FeatureMatrix) Row(routeID int) []float64 {
	for i, id := range m.IDs {
		if id == routeID {
			out := make([]float64, m.Config.Width())
			mat.Row(out, i, m.X)
			return out
		}
	}
	return nil
}

// ExtractFeatures builds the feature matrix for a route snapshot. Routes
// with fewer than two points cannot produce the base schema; they are
// excluded with a logged warning, not a fatal error. Values are emitted
// unscaled — normalization is the reduction orchestrator's concern.
func ExtractFeatures(snapshot []routes.Route, cfg FeatureConfig) *FeatureMatrix {
	var ids []int
	var rows [][]float64
	for _, rt := range snapshot {
		if len(rt.Points) < 2 {
			monitoring.Logf("analysis: excluding route %d from feature matrix (%d point(s), need 2)", rt.ID, len(rt.Points))
			continue
		}
		ids = append(ids, rt.ID)
		rows = append(rows, routeFeatureVector(rt, cfg))
	}

	fm := &FeatureMatrix{IDs: ids, Config: cfg}
	if len(rows) == 0 {
		return fm
	}

	fm.X = mat.NewDense(len(rows), cfg.Width(), nil)
	for i, row := range rows {
		fm.X.SetRow(i, row)
	}
	return fm
}

func routeFeatureVector(rt routes.Route, cfg FeatureConfig) []float64 {
	start, end := rt.Start(), rt.End()

	v := make([]float64, 0, cfg.Width())
	v = append(v, start.X, start.Y, end.X, end.Y, rt.Length())

	if cfg.IncludeMiddle {
		mid := rt.MiddlePoint()
		v = append(v, mid.X, mid.Y)
	}
	if cfg.IncludeThirds {
		p1, p2 := rt.ThirdPoints()
		v = append(v, p1.X, p1.Y, p2.X, p2.Y)
	}
	if cfg.IncludeEuclidean {
		v = append(v, rt.EuclideanDistance())
	}
	return v
}
