package numerics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// twoBlobs returns two well-separated groups of points, four per group.
func twoBlobs() []Point2 {
	return []Point2{
		{0, 0}, {0.1, 0}, {0, 0.1}, {0.1, 0.1},
		{10, 10}, {10.1, 10}, {10, 10.1}, {10.1, 10.1},
	}
}

// blobMatrix lifts the blob points into an n×2 feature matrix.
func blobMatrix() *mat.Dense {
	pts := twoBlobs()
	X := mat.NewDense(len(pts), 2, nil)
	for i, p := range pts {
		X.Set(i, 0, p.X)
		X.Set(i, 1, p.Y)
	}
	return X
}

func TestStandardize(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		0, 7,
		2, 7,
		4, 7,
		6, 7,
	})
	Z := Standardize(X)

	// Column 0 has spread: mean 0, stddev 1 afterwards.
	n, _ := Z.Dims()
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		v := Z.At(i, 0)
		sum += v
		sumSq += v * v
	}
	mean := sum / float64(n)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("standardized column mean = %v, want 0", mean)
	}
	std := math.Sqrt((sumSq - float64(n)*mean*mean) / float64(n-1))
	if math.Abs(std-1) > 1e-9 {
		t.Errorf("standardized column stddev = %v, want 1", std)
	}

	// Column 1 is constant: centred to zero, never divided by zero.
	for i := 0; i < n; i++ {
		if v := Z.At(i, 1); v != 0 || math.IsNaN(v) {
			t.Errorf("constant column row %d = %v, want 0", i, v)
		}
	}
}

func TestStandardizeLeavesInputUntouched(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 3})
	Standardize(X)
	if X.At(0, 0) != 1 || X.At(1, 0) != 3 {
		t.Error("Standardize mutated its input")
	}
}

func TestPairwiseDistances(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 0,
		3, 4,
		0, 1,
	})
	D := PairwiseDistances(X)

	if got := D.At(0, 1); math.Abs(got-5) > 1e-9 {
		t.Errorf("D[0][1] = %v, want 5", got)
	}
	if got := D.At(1, 0); math.Abs(got-5) > 1e-9 {
		t.Errorf("D[1][0] = %v, want 5 (symmetry)", got)
	}
	for i := 0; i < 3; i++ {
		if got := D.At(i, i); got != 0 {
			t.Errorf("D[%d][%d] = %v, want 0", i, i, got)
		}
	}
}
