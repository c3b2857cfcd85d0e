package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/mat"
)

// Isomap embeds the rows of X into 2D preserving geodesic distances: a
// k-nearest-neighbour graph is built over the samples, shortest paths
// through the graph approximate distances along the data manifold, and
// classical MDS embeds the geodesic distance matrix.
//
// A disconnected neighbourhood graph is an error; the caller decides
// whether to retry with a larger neighbourhood.
func Isomap(X *mat.Dense, nNeighbors int) (*mat.Dense, error) {
	n, _ := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("isomap: need at least 2 samples, got %d", n)
	}
	if nNeighbors < 1 || nNeighbors >= n {
		return nil, fmt.Errorf("isomap: n_neighbors %d out of range for %d samples", nNeighbors, n)
	}

	D := PairwiseDistances(X)

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	for i := 0; i < n; i++ {
		g.AddNode(simple.Node(i))
	}
	for i := 0; i < n; i++ {
		for _, j := range nearestNeighbors(D, i, nNeighbors) {
			g.SetWeightedEdge(g.NewWeightedEdge(simple.Node(i), simple.Node(j), D.At(i, j)))
		}
	}

	paths, ok := path.FloydWarshall(g)
	if !ok {
		return nil, fmt.Errorf("isomap: shortest-path computation failed")
	}

	geo := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			w := paths.Weight(int64(i), int64(j))
			if math.IsInf(w, 1) {
				return nil, fmt.Errorf("isomap: neighbourhood graph is disconnected with n_neighbors=%d", nNeighbors)
			}
			geo.Set(i, j, w)
			geo.Set(j, i, w)
		}
	}

	return scaleDistances(geo)
}
