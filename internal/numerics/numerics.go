// Package numerics provides the numerical primitives behind the route
// analytics pipeline: dimensionality-reduction algorithms projecting a
// feature matrix into 2D, and density-based clustering over 2D points.
//
// Reducers share the contract
//
//	func(X *mat.Dense, params…) (*mat.Dense, error)
//
// taking an n×d matrix and returning an n×2 matrix with rows in the same
// order. Clusterers take a point slice and return one integer label per
// point, -1 meaning noise. Input validation beyond basic shape checks is
// the caller's responsibility; errors returned here indicate numerical
// failure, not bad parameters.
package numerics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Point2 is a point in the 2D embedding space.
type Point2 struct {
	X, Y float64
}

func (p Point2) distanceTo(q Point2) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Standardize returns a copy of X with each column z-score normalized
// (zero mean, unit standard deviation). Zero-variance columns are centred
// but not scaled.
func Standardize(X *mat.Dense) *mat.Dense {
	n, d := X.Dims()
	out := mat.NewDense(n, d, nil)
	col := make([]float64, n)

	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := 0; i < n; i++ {
			out.Set(i, j, (col[i]-mean)/std)
		}
	}
	return out
}

// PairwiseDistances returns the n×n Euclidean distance matrix over the
// rows of X.
func PairwiseDistances(X *mat.Dense) *mat.Dense {
	n, d := X.Dims()
	D := mat.NewDense(n, n, nil)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for k := 0; k < d; k++ {
				diff := X.At(i, k) - X.At(j, k)
				sum += diff * diff
			}
			dist := math.Sqrt(sum)
			D.Set(i, j, dist)
			D.Set(j, i, dist)
		}
	}
	return D
}

// nearestNeighbors returns, for row i of the distance matrix, the indices
// of the k nearest other rows in ascending distance order.
func nearestNeighbors(D *mat.Dense, i, k int) []int {
	n, _ := D.Dims()
	idx := make([]int, 0, n-1)
	for j := 0; j < n; j++ {
		if j != i {
			idx = append(idx, j)
		}
	}
	// Insertion sort by distance; n is the number of routes, which is tiny.
	for a := 1; a < len(idx); a++ {
		for b := a; b > 0 && D.At(i, idx[b]) < D.At(i, idx[b-1]); b-- {
			idx[b], idx[b-1] = idx[b-1], idx[b]
		}
	}
	if k > len(idx) {
		k = len(idx)
	}
	return idx[:k]
}
