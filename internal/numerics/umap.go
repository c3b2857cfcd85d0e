package numerics

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

const (
	umapSeed      = 42
	umapEpochs    = 200
	umapNegatives = 5
	umapGradClip  = 4.0
)

// UMAP embeds the rows of X into two dimensions. The implementation is a
// compact form of the reference algorithm: fuzzy membership strengths on
// a k-nearest-neighbour graph, symmetrized with the probabilistic
// t-conorm, laid out by stochastic gradient descent with negative
// sampling from a PCA initialization. The run is seeded, so identical
// inputs produce identical embeddings.
func UMAP(X *mat.Dense, nNeighbors int, minDist float64) (*mat.Dense, error) {
	n, _ := X.Dims()
	if n < 2 {
		return nil, fmt.Errorf("umap: need at least 2 samples, got %d", n)
	}
	if nNeighbors < 1 || nNeighbors >= n {
		return nil, fmt.Errorf("umap: n_neighbors %d out of range for %d samples", nNeighbors, n)
	}
	if minDist < 0 {
		return nil, fmt.Errorf("umap: min_dist must be non-negative, got %g", minDist)
	}

	D := PairwiseDistances(X)

	// Directed membership strengths over each point's neighbourhood.
	directed := make([][]float64, n)
	target := math.Log2(float64(nNeighbors) + 1)
	for i := 0; i < n; i++ {
		directed[i] = make([]float64, n)
		nb := nearestNeighbors(D, i, nNeighbors)
		rho := D.At(i, nb[0])
		sigma := smoothNeighborScale(D, i, nb, rho, target)
		for _, j := range nb {
			directed[i][j] = math.Exp(-math.Max(0, D.At(i, j)-rho) / sigma)
		}
	}

	// Symmetrize: w = a + b − a·b.
	type fuzzyEdge struct {
		i, j int
		w    float64
	}
	var edges []fuzzyEdge
	var maxW float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := directed[i][j], directed[j][i]
			w := a + b - a*b
			if w <= 0 {
				continue
			}
			edges = append(edges, fuzzyEdge{i: i, j: j, w: w})
			if w > maxW {
				maxW = w
			}
		}
	}
	if len(edges) == 0 {
		return nil, fmt.Errorf("umap: empty fuzzy graph")
	}

	curveA, curveB := fitEmbeddingCurve(minDist)

	// PCA initialization keeps the layout deterministic; fall back to a
	// seeded random spread if the decomposition fails.
	rng := rand.New(rand.NewSource(umapSeed))
	y := make([][2]float64, n)
	if init, err := PCA(X); err == nil {
		var maxAbs float64
		for i := 0; i < n; i++ {
			maxAbs = math.Max(maxAbs, math.Max(math.Abs(init.At(i, 0)), math.Abs(init.At(i, 1))))
		}
		if maxAbs == 0 {
			maxAbs = 1
		}
		for i := 0; i < n; i++ {
			y[i][0] = init.At(i, 0) / maxAbs * 10
			y[i][1] = init.At(i, 1) / maxAbs * 10
		}
	} else {
		for i := 0; i < n; i++ {
			y[i][0] = rng.Float64()*20 - 10
			y[i][1] = rng.Float64()*20 - 10
		}
	}

	for epoch := 0; epoch < umapEpochs; epoch++ {
		alpha := 1.0 - float64(epoch)/float64(umapEpochs)
		for _, e := range edges {
			// Sample edges proportionally to membership strength.
			if rng.Float64() > e.w/maxW {
				continue
			}
			applyAttraction(y, e.i, e.j, curveA, curveB, alpha)
			for t := 0; t < umapNegatives; t++ {
				k := rng.Intn(n)
				if k == e.i {
					continue
				}
				applyRepulsion(y, e.i, k, curveA, curveB, alpha)
			}
		}
	}

	out := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, y[i][0])
		out.Set(i, 1, y[i][1])
	}
	return out, nil
}

// smoothNeighborScale binary-searches the per-point bandwidth sigma so
// the neighbourhood memberships sum to log2(k+1).
func smoothNeighborScale(D *mat.Dense, i int, neighbors []int, rho, target float64) float64 {
	lo, hi := 0.0, math.Inf(1)
	mid := 1.0
	for iter := 0; iter < 64; iter++ {
		var sum float64
		for _, j := range neighbors {
			sum += math.Exp(-math.Max(0, D.At(i, j)-rho) / mid)
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = mid
			mid = (lo + hi) / 2
		} else {
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}
	}
	return math.Max(mid, 1e-3)
}

// fitEmbeddingCurve grid-fits the low-dimensional similarity curve
// 1/(1+a·d^2b) against the target curve implied by min_dist.
func fitEmbeddingCurve(minDist float64) (float64, float64) {
	targetAt := func(d float64) float64 {
		if d <= minDist {
			return 1
		}
		return math.Exp(-(d - minDist))
	}

	bestA, bestB := 1.0, 1.0
	bestErr := math.Inf(1)
	for a := 0.05; a <= 5.0; a += 0.05 {
		for b := 0.3; b <= 2.0; b += 0.05 {
			var sse float64
			for d := 0.0; d <= 3.0; d += 0.1 {
				diff := 1/(1+a*math.Pow(d, 2*b)) - targetAt(d)
				sse += diff * diff
			}
			if sse < bestErr {
				bestErr = sse
				bestA, bestB = a, b
			}
		}
	}
	return bestA, bestB
}

func applyAttraction(y [][2]float64, i, j int, a, b, alpha float64) {
	dx := y[i][0] - y[j][0]
	dy := y[i][1] - y[j][1]
	d2 := dx*dx + dy*dy
	if d2 <= 0 {
		return
	}
	coeff := -2 * a * b * math.Pow(d2, b-1) / (1 + a*math.Pow(d2, b))
	gx := clipGradient(coeff * dx)
	gy := clipGradient(coeff * dy)
	y[i][0] += alpha * gx
	y[i][1] += alpha * gy
	y[j][0] -= alpha * gx
	y[j][1] -= alpha * gy
}

func applyRepulsion(y [][2]float64, i, k int, a, b, alpha float64) {
	dx := y[i][0] - y[k][0]
	dy := y[i][1] - y[k][1]
	d2 := dx*dx + dy*dy
	coeff := 2 * b / ((0.001 + d2) * (1 + a*math.Pow(d2, b)))
	y[i][0] += alpha * clipGradient(coeff*dx)
	y[i][1] += alpha * clipGradient(coeff*dy)
}

func clipGradient(g float64) float64 {
	if g > umapGradClip {
		return umapGradClip
	}
	if g < -umapGradClip {
		return -umapGradClip
	}
	return g
}
