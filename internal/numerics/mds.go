package numerics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// MDS performs classical (Torgerson) multidimensional scaling of the rows
// of X into two dimensions, preserving pairwise Euclidean distances as
// well as a rank-2 projection allows.
func MDS(X *mat.Dense) (*mat.Dense, error) {
	n, _ := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("mds: need at least 2 samples, got %d", n)
	}
	return scaleDistances(PairwiseDistances(X))
}

// scaleDistances embeds an n×n symmetric distance matrix into 2D via
// double centring and eigendecomposition. Shared by MDS (Euclidean
// distances) and Isomap (geodesic distances).
func scaleDistances(D *mat.Dense) (*mat.Dense, error) {
	n, _ := D.Dims()

	// Squared distances, row means and grand mean for double centring.
	sq := make([][]float64, n)
	rowMean := make([]float64, n)
	var grand float64
	for i := 0; i < n; i++ {
		sq[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			v := D.At(i, j)
			sq[i][j] = v * v
			rowMean[i] += sq[i][j]
		}
		rowMean[i] /= float64(n)
		grand += rowMean[i]
	}
	grand /= float64(n)

	// B = -1/2 · J·D²·J where J is the centring matrix.
	B := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			B.SetSym(i, j, -0.5*(sq[i][j]-rowMean[i]-rowMean[j]+grand))
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(B, true); !ok {
		return nil, fmt.Errorf("mds: eigendecomposition did not converge")
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back in ascending order; the top two carry the
	// embedding. Negative eigenvalues (non-Euclidean distance input)
	// contribute nothing.
	out := mat.NewDense(n, 2, nil)
	for c := 0; c < 2; c++ {
		idx := n - 1 - c
		if idx < 0 {
			break
		}
		scale := math.Sqrt(math.Max(vals[idx], 0))
		for i := 0; i < n; i++ {
			out.Set(i, c, vecs.At(i, idx)*scale)
		}
	}
	return out, nil
}
