package numerics

import (
	"fmt"
	"math/rand"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

const (
	// tsneSeed fixes the global source feeding go-tsne's initialization so
	// repeated runs over the same matrix are reproducible. Depends on the
	// randseednop=0 godebug setting in go.mod; without it rand.Seed is a
	// no-op from Go 1.24 on.
	tsneSeed       = 42
	tsneIterations = 300
)

// TSNE embeds the rows of X into two dimensions using t-SNE.
func TSNE(X *mat.Dense, perplexity, learningRate float64) (*mat.Dense, error) {
	n, _ := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("t-sne: need at least 2 samples, got %d", n)
	}
	if perplexity >= float64(n) {
		return nil, fmt.Errorf("t-sne: perplexity %.0f must be smaller than sample count %d", perplexity, n)
	}

	rand.Seed(tsneSeed)
	t := tsne.NewTSNE(2, perplexity, learningRate, tsneIterations, false)
	t.EmbedData(X, nil)

	rows, cols := t.Y.Dims()
	if rows != n || cols != 2 {
		return nil, fmt.Errorf("t-sne: unexpected output shape %dx%d for %d samples", rows, cols, n)
	}
	return mat.DenseCopyOf(t.Y), nil
}
