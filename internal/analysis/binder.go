package analysis

import (
	"fmt"
	"sync"

	"github.com/golang/geo/r2"
)

// clusterPalette holds the distinct cluster display colors. Labels wrap
// around the palette when more clusters exist than colors.
var clusterPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#FFA07A", "#98D8C8",
	"#F7DC6F", "#BB8FCE", "#85C1E9", "#F8C471", "#82E0AA",
	"#F1948A", "#85C9F5", "#F9E79F", "#D7BDE2", "#A9DFBF",
}

const (
	// noiseColor is the reserved indicator for noise routes, distinct
	// from every cluster color.
	noiseColor = "#808080"
	// defaultRouteColor is used for routes not covered by the current
	// cluster result (e.g. drawn after the analysis ran).
	defaultRouteColor = "#0000FF"
)

// PaletteSize returns the number of distinct cluster colors.
func PaletteSize() int { return len(clusterPalette) }

// NoiseColorIndex is the reserved color index for noise, one past the
// palette.
func NoiseColorIndex() int { return len(clusterPalette) }

// ColorIndex maps a cluster label to a stable color index. NoiseLabel
// always maps to NoiseColorIndex; other labels wrap around the palette.
func ColorIndex(label int) int {
	if label < 0 {
		return NoiseColorIndex()
	}
	return label % len(clusterPalette)
}

// ColorHex returns the display color for a color index.
func ColorHex(index int) string {
	if index < 0 || index >= len(clusterPalette) {
		return noiseColor
	}
	return clusterPalette[index]
}

// LabelColor returns the display color for a cluster label.
func LabelColor(label int) string {
	return ColorHex(ColorIndex(label))
}

// RouteDisplay is the display-ready binding for one route.
type RouteDisplay struct {
	RouteID    int
	Labeled    bool
	Label      int
	ColorIndex int
	Color      string
}

// Inspection is the reverse lookup for a route selected in the
// visualization layer.
type Inspection struct {
	RouteID    int
	Features   []float64 // nil when the route did not survive extraction
	Coordinate *r2.Point // nil when absent from the embedding
	Label      *int      // nil when absent from the cluster result
}

// Binder maps pipeline products back onto route identities for the
// visualization layer, and answers reverse lookups for selected routes.
// It holds only derived, recomputable data.
type Binder struct {
	mu       sync.Mutex
	features *FeatureMatrix
	emb      *Embedding
	result   *ClusterResult
}

// NewBinder returns an empty binder.
func NewBinder() *Binder {
	return &Binder{}
}

// Bind installs the latest pipeline products. Any argument may be nil to
// leave the previous value in place, except that a new embedding clears
// a cluster result computed from an older one.
func (b *Binder) Bind(fm *FeatureMatrix, emb *Embedding, result *ClusterResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if fm != nil {
		b.features = fm
	}
	if emb != nil {
		if b.emb != nil && b.emb.Key != emb.Key {
			b.result = nil
		}
		b.emb = emb
	}
	if result != nil {
		b.result = result
	}
}

// DisplayMap returns the route-indexed display binding for the given
// route IDs (typically every route in the store, in order). Routes
// without a label keep the default route color.
func (b *Binder) DisplayMap(routeIDs []int) map[int]RouteDisplay {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[int]RouteDisplay, len(routeIDs))
	for _, id := range routeIDs {
		d := RouteDisplay{RouteID: id, Label: NoiseLabel, ColorIndex: -1, Color: defaultRouteColor}
		if b.result != nil {
			if label, ok := b.result.Labels[id]; ok {
				d.Labeled = true
				d.Label = label
				d.ColorIndex = ColorIndex(label)
				d.Color = ColorHex(d.ColorIndex)
			}
		}
		out[id] = d
	}
	return out
}

// Inspect returns the feature vector, embedding coordinate and cluster
// label of a route, each absent when the corresponding product does not
// cover the route.
func (b *Binder) Inspect(routeID int) (Inspection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.features == nil && b.emb == nil && b.result == nil {
		return Inspection{}, fmt.Errorf("no analysis results bound")
	}

	ins := Inspection{RouteID: routeID}
	if b.features != nil {
		ins.Features = b.features.Row(routeID)
	}
	if b.emb != nil {
		if p, ok := b.emb.Coordinate(routeID); ok {
			ins.Coordinate = &p
		}
	}
	if b.result != nil {
		if l, ok := b.result.Label(routeID); ok {
			label := l
			ins.Label = &label
		}
	}
	return ins, nil
}
