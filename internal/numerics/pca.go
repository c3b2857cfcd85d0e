package numerics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects the rows of X onto their first two principal components.
func PCA(X *mat.Dense) (*mat.Dense, error) {
	n, d := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("pca: need at least 2 samples, got %d", n)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, fmt.Errorf("pca: decomposition did not converge")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	_, k := vecs.Dims()
	if k > 2 {
		k = 2
	}

	// Project the mean-centred data onto the leading components.
	means := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		means[j] = stat.Mean(col, nil)
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, X.At(i, j)-means[j])
		}
	}

	var proj mat.Dense
	proj.Mul(centered, vecs.Slice(0, d, 0, k))

	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < k; j++ {
			out.Set(i, j, proj.At(i, j))
		}
	}
	return out, nil
}
